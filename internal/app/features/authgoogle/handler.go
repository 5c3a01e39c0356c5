// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/store/audit"
	loginstore "github.com/dalemusser/placementhub/internal/app/store/logins"
	"github.com/dalemusser/placementhub/internal/app/store/oauthstate"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/authutil"
	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL           = 10 * time.Minute
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google sign-in for students. Admins always use passwords.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Students   *studentstore.Store
	Logins     *loginstore.Store
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://api.example.edu/api/auth/google/callback"
	FrontendURL  string // SPA origin that receives the final redirect

	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a Google sign-in handler. apiBaseURL is where this
// server is reachable; frontendURL is the SPA origin.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, apiBaseURL, frontendURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		Students:     studentstore.New(db),
		Logins:       loginstore.New(db),
		StateStore:   oauthstate.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(apiBaseURL, "/") + "/api/auth/google/callback",
		FrontendURL:  strings.TrimRight(frontendURL, "/"),
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/login                                                   |
| Stores a one-time state + PKCE verifier and redirects to Google.             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToLogin(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}
	verifier := oauth2.GenerateVerifier()
	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, verifier, returnURL, stateTTL); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/callback                                                |
| Exchanges the code, fetches the profile, links or creates the student and    |
| signs them in.                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectToLogin(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		h.Log.Warn("missing OAuth state or code")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	stCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	saved, err := h.StateStore.Consume(stCtx, state)
	cancel()
	if errors.Is(err, oauthstate.ErrInvalid) {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}
	if err != nil {
		h.Log.Error("failed to consume OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	exCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	token, err := h.oauth2Config().Exchange(exCtx, code, oauth2.VerifierOption(saved.Verifier))
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToLogin(w, r, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(exCtx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToLogin(w, r, "user_info")
		return
	}
	if !info.EmailVerified || info.Email == "" {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, auth.RoleStudent, info.Email, "google email not verified")
		h.redirectToLogin(w, r, "email_unverified")
		return
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, timeouts.Short())
	defer dbCancel()

	st, created, err := h.resolveStudent(dbCtx, info)
	if err != nil {
		h.Log.Error("failed to resolve Google student", zap.Error(err), zap.String("email", info.Email))
		h.redirectToLogin(w, r, "internal")
		return
	}
	if st.Status == studentstore.StatusDisabled {
		h.AuditLog.LoginFailed(dbCtx, r, audit.EventLoginFailedUserDisabled, &st.ID, auth.RoleStudent, st.Email, "account disabled")
		h.redirectToLogin(w, r, "account_disabled")
		return
	}

	u := &auth.SessionUser{ID: st.ID.Hex(), Name: st.Name, Email: st.Email, Role: auth.RoleStudent}
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID))
		h.redirectToLogin(w, r, "session")
		return
	}

	if created {
		h.AuditLog.Registered(dbCtx, r, st.ID, loginstore.ProviderGoogle)
	}
	if err := h.Logins.CreateFrom(dbCtx, r, st.ID, auth.RoleStudent, loginstore.ProviderGoogle); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", u.ID))
	}
	h.AuditLog.LoginSuccess(dbCtx, r, st.ID, auth.RoleStudent, loginstore.ProviderGoogle, st.Email)

	h.Log.Info("student signed in via Google",
		zap.String("user_id", u.ID),
		zap.Bool("created", created))

	dest := urlutil.SafeReturn(saved.ReturnURL, "", "/dashboard")
	http.Redirect(w, r, h.FrontendURL+dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Student lookup                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauth2Config().Client(ctx, token)

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	info.Email = normalize.Email(info.Email)
	return &info, nil
}

// resolveStudent finds the student by Google ID, then by email (linking the
// Google ID), and otherwise creates one with an unusable password.
func (h *Handler) resolveStudent(ctx context.Context, info *googleUserInfo) (models.Student, bool, error) {
	st, err := h.Students.GetByGoogleID(ctx, info.ID)
	if err == nil {
		return st, false, nil
	}
	if !errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, false, err
	}

	st, err = h.Students.GetByEmail(ctx, info.Email)
	if err == nil {
		if st.GoogleID == "" {
			if err := h.Students.LinkGoogle(ctx, st.ID, info.ID); err != nil {
				h.Log.Warn("failed to link google id", zap.Error(err), zap.String("user_id", st.ID.Hex()))
			}
		}
		return st, false, nil
	}
	if !errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, false, err
	}

	hash, err := authutil.UnusableHash()
	if err != nil {
		return models.Student{}, false, err
	}
	name := info.Name
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}
	st, err = h.Students.Create(ctx, models.Student{
		Name:            name,
		Email:           info.Email,
		PasswordHash:    hash,
		GoogleID:        info.ID,
		ProfileImageURL: info.Picture,
	})
	if err != nil {
		return models.Student{}, false, err
	}
	return st, true, nil
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, h.FrontendURL+"/login?error="+errorCode, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
