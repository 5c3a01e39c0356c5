// Package auth manages cookie sessions for students and admins and provides
// the middleware that guards /api routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Roles carried in a session.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

const (
	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userRole   = "user_role"
	signedInAt = "signed_in_at"
)

// SessionUser is the signed-in account injected into the request context.
// Name, Email and SuperAdmin are refreshed from the database on every
// request by the UserFetcher.
type SessionUser struct {
	ID         string
	Name       string
	Email      string
	Role       string
	SuperAdmin bool
}

// ObjectID parses the user's ID.
func (u *SessionUser) ObjectID() primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(u.ID)
	return oid
}

// IsAdmin reports whether the user is an admin (including superadmins).
func (u *SessionUser) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsStudent reports whether the user is a student.
func (u *SessionUser) IsStudent() bool { return u != nil && u.Role == RoleStudent }

// ErrUserNotFound is returned by a UserFetcher when the account is gone or
// disabled. The session is then treated as signed out.
var ErrUserNotFound = errors.New("session user not found")

// UserFetcher loads the current state of an account.
type UserFetcher interface {
	FetchUser(ctx context.Context, role, id string) (*SessionUser, error)
}

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure and SameSite=None so the SPA
// may call the API cross-site; in development they are SameSite=Lax.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "placement-session"
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher installs the fetcher used by LoadSessionUser.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// session returns the request's session. A cookie that fails to decode
// (rotated key, tampering) yields a fresh session rather than an error.
func (m *SessionManager) session(r *http.Request) (*sessions.Session, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			return sess, nil
		}
		return sess, err
	}
	return sess, nil
}

// SignIn writes a session for u.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, err := m.session(r)
	if err != nil {
		return err
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userRole] = u.Role
	sess.Values[signedInAt] = time.Now().UTC().Unix()
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.session(r)
	if err != nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the signed-in user into the request context.
// The account is re-read on every request so disabled users lose access
// immediately.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.session(r)
		if err != nil {
			m.log.Warn("session load failed", zap.Error(err), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
			return
		}

		isAuth, _ := sess.Values[isAuthKey].(bool)
		if !isAuth {
			next.ServeHTTP(w, r)
			return
		}

		id, _ := sess.Values[userIDKey].(string)
		role, _ := sess.Values[userRole].(string)
		if id == "" || role == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{ID: id, Role: role}
		if m.fetcher != nil {
			fresh, err := m.fetcher.FetchUser(r.Context(), role, id)
			switch {
			case errors.Is(err, ErrUserNotFound):
				next.ServeHTTP(w, r)
				return
			case err != nil:
				m.log.Error("session user fetch failed", zap.Error(err), zap.String("user_id", id))
				apiresp.Error(w, http.StatusServiceUnavailable, "session lookup failed")
				return
			}
			u = fresh
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apiresp.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only the listed roles: 401 when signed out, 403 otherwise.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				apiresp.Error(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				apiresp.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin allows only superadmin accounts.
func (m *SessionManager) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			apiresp.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		if !u.IsAdmin() || !u.SuperAdmin {
			apiresp.Error(w, http.StatusForbidden, "superadmin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user placed in context by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithUser returns r with u in its context.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser is WithUser for tests in other packages.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request { return WithUser(r, u) }
