// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config selects a destination per category.
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB and/or zap.
// A nil *Logger is a valid no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ValidMode reports whether m is a known destination.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.UserRole != "" {
		fields = append(fields, zap.String("user_role", event.UserRole))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's mode. Unknown categories
// are logged everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	mode := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		mode = l.config.Auth
	case audit.CategoryAdmin:
		mode = l.config.Admin
	}
	if mode == ModeOff {
		return
	}

	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func base(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, role, provider, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	ev.UserID = &userID
	ev.UserRole = role
	ev.Details = map[string]string{"provider": provider, "email": email}
	l.Log(ctx, ev)
}

// LoginFailed logs a rejected sign-in. userID is nil when the account was not found.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, role, email, reason string) {
	ev := base(r, audit.CategoryAuth, eventType, false)
	ev.UserID = userID
	ev.UserRole = role
	ev.FailureReason = reason
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	ev := base(r, audit.CategoryAuth, audit.EventLogout, true)
	ev.UserID = &userID
	ev.UserRole = role
	l.Log(ctx, ev)
}

// Registered logs a new student self-registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider string) {
	ev := base(r, audit.CategoryAuth, audit.EventRegistered, true)
	ev.UserID = &userID
	ev.UserRole = "student"
	ev.Details = map[string]string{"provider": provider}
	l.Log(ctx, ev)
}

// PasswordEvent logs password change/reset activity.
func (l *Logger) PasswordEvent(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, role string, success bool, reason string) {
	ev := base(r, audit.CategoryAuth, eventType, success)
	ev.UserID = userID
	ev.UserRole = role
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

// --- Admin events ---

// AdminAction logs an admin mutation. target is the affected record (student,
// company, quiz...); details carries free-form context such as names.
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, actorID primitive.ObjectID, eventType string, target *primitive.ObjectID, details map[string]string) {
	ev := base(r, audit.CategoryAdmin, eventType, true)
	ev.ActorID = &actorID
	ev.UserID = target
	ev.Details = details
	l.Log(ctx, ev)
}
