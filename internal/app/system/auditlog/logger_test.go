package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "student", "password", "a@b.c")
	logger.Logout(ctx, req, primitive.NewObjectID(), "admin")
}

func TestLogger_LogOnlyMode_WritesToZapNotDB(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog, Admin: auditlog.ModeOff})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "10.1.1.1")

	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "student", "password", "s@x.com")
	logger.AdminAction(ctx, req, primitive.NewObjectID(), audit.EventCompanyCreated, nil, nil)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 zap entry (admin is off), got %d", logs.Len())
	}
	entry := logs.All()[0]
	fields := entry.ContextMap()
	if fields["audit"] != true || fields["ip"] != "10.1.1.1" || fields["detail_provider"] != "password" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestLogger_FailureIsWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.LoginFailed(ctx, httptest.NewRequest("POST", "/", nil), audit.EventLoginFailedWrongPassword, nil, "student", "s@x.com", "wrong password")

	if logs.Len() != 1 || logs.All()[0].Level != zap.WarnLevel {
		t.Fatalf("expected one warn entry, got %v", logs.All())
	}
}

func TestLogger_DBMode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeOff})

	userID := primitive.NewObjectID()
	logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/", nil), userID, "student", "google", "s@x.com")
	logger.AdminAction(ctx, httptest.NewRequest("POST", "/", nil), primitive.NewObjectID(), audit.EventStudentDeleted, &userID, nil)

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventLoginSuccess {
		t.Fatalf("expected only the auth event, got %+v", events)
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = false", m)
		}
	}
	if auditlog.ValidMode("verbose") {
		t.Error("ValidMode(verbose) = true")
	}
}
