// internal/app/features/accounts/auth.go
package accounts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	adminstore "github.com/dalemusser/placementhub/internal/app/store/admins"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	loginstore "github.com/dalemusser/placementhub/internal/app/store/logins"
	"github.com/dalemusser/placementhub/internal/app/store/passwordreset"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/authutil"
	"github.com/dalemusser/placementhub/internal/app/system/mailer"
	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/app/system/timeouts"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
)

const msgBadCredentials = "invalid email or password"

/*───────────────────────────────────────────────────────────────────────────────
| POST /api/auth/register
*/

type registerRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	RollNo   string   `json:"roll_no"`
	Branch   string   `json:"branch"`
	Year     int      `json:"year"`
	CGPA     float64  `json:"cgpa"`
	Phone    string   `json:"phone"`
	Skills   []string `json:"skills"`
}

func (req registerRequest) validate() string {
	switch {
	case normalize.Name(req.Name) == "":
		return "name is required"
	case !normalize.ValidEmail(req.Email):
		return "a valid email is required"
	case normalize.RollNo(req.RollNo) == "":
		return "roll_no is required"
	case normalize.Branch(req.Branch) == "":
		return "branch is required"
	case req.Year < 1 || req.Year > 6:
		return "year must be between 1 and 6"
	case req.CGPA < 0 || req.CGPA > 10:
		return "cgpa must be between 0 and 10"
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		return err.Error()
	}
	return ""
}

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		apiresp.BadRequest(w, msg)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Students.Create(ctx, models.Student{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		RollNo:       req.RollNo,
		Branch:       req.Branch,
		Year:         req.Year,
		CGPA:         req.CGPA,
		Phone:        strings.TrimSpace(req.Phone),
		Skills:       req.Skills,
	})
	switch {
	case errors.Is(err, studentstore.ErrDuplicateEmail), errors.Is(err, studentstore.ErrDuplicateRollNo):
		apiresp.Conflict(w, err.Error())
		return
	case err != nil:
		h.Log.Error("create student failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, fromStudent(st).sessionUser()); err != nil {
		h.Log.Error("session save failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	h.AuditLog.Registered(ctx, r, st.ID, loginstore.ProviderPassword)
	if err := h.Logins.CreateFrom(ctx, r, st.ID, auth.RoleStudent, loginstore.ProviderPassword); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", st.ID.Hex()))
	}

	apiresp.Created(w, st)
}

/*───────────────────────────────────────────────────────────────────────────────
| POST /api/auth/login
*/

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		apiresp.BadRequest(w, "role must be student or admin")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apiresp.BadRequest(w, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, email); !allowed {
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, nil, role, email, reason)
			w.Header().Set("Retry-After", "60")
			apiresp.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	acct, err := h.lookupByEmail(ctx, role, email)
	if errors.Is(err, errNoAccount) {
		authutil.BurnCompare(req.Password)
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, role, email, "account not found")
		apiresp.Error(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	if err != nil {
		h.Log.Error("account lookup failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	if !authutil.CheckPassword(acct.Hash, req.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &acct.ID, role, email, "wrong password")
		apiresp.Error(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	if acct.Status == studentstore.StatusDisabled {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, &acct.ID, role, email, "account disabled")
		apiresp.Forbidden(w, "account is disabled")
		return
	}

	u := acct.sessionUser()
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.Log.Error("session save failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	if err := h.Logins.CreateFrom(ctx, r, acct.ID, role, loginstore.ProviderPassword); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", acct.ID.Hex()))
	}
	h.AuditLog.LoginSuccess(ctx, r, acct.ID, role, loginstore.ProviderPassword, email)

	apiresp.OK(w, map[string]any{"user": toUserResponse(u)})
}

/*───────────────────────────────────────────────────────────────────────────────
| POST /api/auth/logout
*/

func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ObjectID(), u.Role)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	apiresp.NoContent(w)
}

/*───────────────────────────────────────────────────────────────────────────────
| GET /api/auth/me
*/

// ServeMe returns the session user plus the full student or admin record.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var profile any
	var err error
	switch u.Role {
	case auth.RoleStudent:
		profile, err = h.Students.GetByID(ctx, u.ObjectID())
		if errors.Is(err, studentstore.ErrNotFound) {
			apiresp.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
	default:
		profile, err = h.Admins.GetByID(ctx, u.ObjectID())
		if errors.Is(err, adminstore.ErrNotFound) {
			apiresp.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
	}
	if err != nil {
		h.Log.Error("load profile failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	apiresp.OK(w, map[string]any{"user": toUserResponse(u), "profile": profile})
}

/*───────────────────────────────────────────────────────────────────────────────
| POST /api/auth/password
*/

type changePasswordRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

func (h *Handler) ServeChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	uid := u.ObjectID()

	var req changePasswordRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	if err := authutil.ValidatePassword(req.New); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.lookupByID(ctx, u.Role, uid)
	if errors.Is(err, errNoAccount) {
		apiresp.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	if err != nil {
		h.Log.Error("account lookup failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if !authutil.CheckPassword(acct.Hash, req.Current) {
		h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordChanged, &uid, u.Role, false, "current password incorrect")
		apiresp.BadRequest(w, "current password is incorrect")
		return
	}

	hash, err := authutil.HashPassword(req.New)
	if err != nil {
		h.Log.Error("hash password failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if err := h.setPassword(ctx, u.Role, uid, hash); err != nil {
		h.Log.Error("set password failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordChanged, &uid, u.Role, true, "")

	apiresp.NoContent(w)
}

/*───────────────────────────────────────────────────────────────────────────────
| POST /api/auth/forgot
*/

type forgotRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

const msgResetSent = "if an account exists for that email, a reset code has been sent"

// ServeForgot answers 202 whether or not the account exists.
func (h *Handler) ServeForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		apiresp.BadRequest(w, "role must be student or admin")
		return
	}
	email := normalize.Email(req.Email)
	if !normalize.ValidEmail(email) {
		apiresp.BadRequest(w, "a valid email is required")
		return
	}

	accepted := func() {
		apiresp.JSON(w, http.StatusAccepted, map[string]string{"status": msgResetSent})
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, err := h.lookupByEmail(ctx, role, email)
	if errors.Is(err, errNoAccount) {
		h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetRequested, nil, role, false, "account not found")
		accepted()
		return
	}
	if err != nil {
		h.Log.Error("account lookup failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if acct.Status == studentstore.StatusDisabled {
		h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetRequested, &acct.ID, role, false, "account disabled")
		accepted()
		return
	}

	code, err := h.Resets.Create(ctx, role, email, acct.ID)
	if errors.Is(err, passwordreset.ErrTooManyRequests) {
		h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetRequested, &acct.ID, role, false, "too many requests")
		accepted()
		return
	}
	if err != nil {
		h.Log.Error("create reset code failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	if h.Mailer == nil {
		h.Log.Warn("mailer not configured; reset code not sent", zap.String("user_id", acct.ID.Hex()))
	} else {
		msg := mailer.BuildPasswordResetEmail(mailer.ResetEmailData{
			SiteName:  h.SiteName,
			Name:      acct.Name,
			Code:      code,
			ResetLink: h.resetLink(),
			ExpiresIn: formatExpiry(h.Resets.Expiry()),
		})
		msg.To = acct.Email
		if err := h.Mailer.Send(ctx, msg); err != nil {
			h.Log.Error("send reset email failed", zap.Error(err), zap.String("user_id", acct.ID.Hex()))
		}
	}
	h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetRequested, &acct.ID, role, true, "")
	accepted()
}

func (h *Handler) resetLink() string {
	if h.BaseURL == "" {
		return ""
	}
	return h.BaseURL + "/reset-password"
}

/*───────────────────────────────────────────────────────────────────────────────
| POST /api/auth/reset
*/

type resetRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := apiresp.Decode(w, r, &req); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		apiresp.BadRequest(w, "role must be student or admin")
		return
	}
	code := strings.TrimSpace(req.Code)
	if len(code) != 6 {
		apiresp.BadRequest(w, "code must be 6 digits")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		apiresp.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reset, err := h.Resets.Verify(ctx, role, req.Email, code)
	switch {
	case errors.Is(err, passwordreset.ErrNotFound), errors.Is(err, passwordreset.ErrInvalidCode):
		h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetFailed, nil, role, false, err.Error())
		apiresp.BadRequest(w, "invalid or expired code")
		return
	case errors.Is(err, passwordreset.ErrTooManyAttempts):
		h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetFailed, nil, role, false, err.Error())
		apiresp.Error(w, http.StatusTooManyRequests, "too many attempts; request a new code")
		return
	case err != nil:
		h.Log.Error("verify reset code failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	if err := h.setPassword(ctx, role, reset.UserID, hash); err != nil {
		if errors.Is(err, studentstore.ErrNotFound) || errors.Is(err, adminstore.ErrNotFound) {
			apiresp.BadRequest(w, "invalid or expired code")
			return
		}
		h.Log.Error("set password failed", zap.Error(err), zap.String("path", r.URL.Path))
		apiresp.Internal(w)
		return
	}
	h.AuditLog.PasswordEvent(ctx, r, audit.EventPasswordResetCompleted, &reset.UserID, role, true, "")

	apiresp.NoContent(w)
}
