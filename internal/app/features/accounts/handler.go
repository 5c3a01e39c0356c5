// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	adminstore "github.com/dalemusser/placementhub/internal/app/store/admins"
	loginstore "github.com/dalemusser/placementhub/internal/app/store/logins"
	"github.com/dalemusser/placementhub/internal/app/store/passwordreset"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/mailer"
	"github.com/dalemusser/placementhub/internal/app/system/ratelimit"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/auth: registration, password sign-in, sign-out,
// password change and the emailed reset-code flow.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Students   *studentstore.Store
	Admins     *adminstore.Store
	Logins     *loginstore.Store
	Resets     *passwordreset.Store
	Mailer     mailer.Sender // nil disables reset emails
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter

	SiteName string
	BaseURL  string // SPA origin used in reset emails
}

// NewHandler wires the account stores for db.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	sender mailer.Sender,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	siteName, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		Students:   studentstore.New(db),
		Admins:     adminstore.New(db),
		Logins:     loginstore.New(db),
		Resets:     passwordreset.New(db, 0),
		Mailer:     sender,
		AuditLog:   audit,
		Limiter:    limiter,
		SiteName:   siteName,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// account is the part of a student or admin the sign-in flows need.
type account struct {
	ID         primitive.ObjectID
	Name       string
	Email      string
	Role       string
	Hash       string
	Status     string
	SuperAdmin bool
}

func (a account) sessionUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:         a.ID.Hex(),
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		SuperAdmin: a.SuperAdmin,
	}
}

var errNoAccount = errors.New("no account")

func fromStudent(st models.Student) account {
	return account{ID: st.ID, Name: st.Name, Email: st.Email, Role: auth.RoleStudent, Hash: st.PasswordHash, Status: st.Status}
}

func fromAdmin(a models.Admin) account {
	return account{ID: a.ID, Name: a.Name, Email: a.Email, Role: auth.RoleAdmin, Hash: a.PasswordHash, Status: a.Status, SuperAdmin: a.SuperAdmin}
}

func (h *Handler) lookupByEmail(ctx context.Context, role, email string) (account, error) {
	switch role {
	case auth.RoleStudent:
		st, err := h.Students.GetByEmail(ctx, email)
		if errors.Is(err, studentstore.ErrNotFound) {
			return account{}, errNoAccount
		}
		if err != nil {
			return account{}, err
		}
		return fromStudent(st), nil
	case auth.RoleAdmin:
		a, err := h.Admins.GetByEmail(ctx, email)
		if errors.Is(err, adminstore.ErrNotFound) {
			return account{}, errNoAccount
		}
		if err != nil {
			return account{}, err
		}
		return fromAdmin(a), nil
	}
	return account{}, errNoAccount
}

func (h *Handler) lookupByID(ctx context.Context, role string, id primitive.ObjectID) (account, error) {
	switch role {
	case auth.RoleStudent:
		st, err := h.Students.GetByID(ctx, id)
		if errors.Is(err, studentstore.ErrNotFound) {
			return account{}, errNoAccount
		}
		if err != nil {
			return account{}, err
		}
		return fromStudent(st), nil
	case auth.RoleAdmin:
		a, err := h.Admins.GetByID(ctx, id)
		if errors.Is(err, adminstore.ErrNotFound) {
			return account{}, errNoAccount
		}
		if err != nil {
			return account{}, err
		}
		return fromAdmin(a), nil
	}
	return account{}, errNoAccount
}

func (h *Handler) setPassword(ctx context.Context, role string, id primitive.ObjectID, hash string) error {
	if role == auth.RoleAdmin {
		return h.Admins.SetPassword(ctx, id, hash)
	}
	return h.Students.SetPassword(ctx, id, hash)
}

// parseRole defaults to student and rejects anything but student/admin.
func parseRole(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", auth.RoleStudent:
		return auth.RoleStudent, true
	case auth.RoleAdmin:
		return auth.RoleAdmin, true
	}
	return "", false
}

// userResponse is the JSON shape of the signed-in account.
type userResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	SuperAdmin bool   `json:"super_admin"`
}

func toUserResponse(u *auth.SessionUser) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, SuperAdmin: u.SuperAdmin}
}

func formatExpiry(d time.Duration) string {
	m := int(d.Round(time.Minute).Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
