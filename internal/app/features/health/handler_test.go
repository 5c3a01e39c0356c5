package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/app/features/health"
	"github.com/dalemusser/placementhub/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var out response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, out
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec, out := serve(t, health.NewHandler(db.Client(), nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if out.Status != "ok" || out.Database != "connected" {
		t.Errorf("unexpected body %+v", out)
	}
	if out.Cache != "disabled" {
		t.Errorf("cache: got %q, want disabled", out.Cache)
	}
}

func TestServe_CacheUnavailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	rec, out := serve(t, health.NewHandler(db.Client(), rdb, zap.NewNop()))
	if rec.Code != http.StatusOK {
		t.Errorf("redis outage must not fail health, got %d", rec.Code)
	}
	if out.Cache != "unavailable" {
		t.Errorf("cache: got %q, want unavailable", out.Cache)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rec, out := serve(t, health.NewHandler(client, nil, zap.NewNop()))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if out.Status != "error" || out.Database != "disconnected" {
		t.Errorf("unexpected body %+v", out)
	}
}
