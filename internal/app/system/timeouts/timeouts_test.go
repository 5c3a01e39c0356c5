package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	Reset()
	if Ping() != DefaultPing || Short() != DefaultShort || Medium() != DefaultMedium ||
		Long() != DefaultLong || AI() != DefaultAI {
		t.Fatalf("unexpected defaults: %+v", Current())
	}
}

func TestConfigure_PartialOverride(t *testing.T) {
	Reset()
	defer Reset()

	Configure(Config{Short: 7 * time.Second, AI: 90 * time.Second})

	if Short() != 7*time.Second {
		t.Errorf("Short = %v, want 7s", Short())
	}
	if AI() != 90*time.Second {
		t.Errorf("AI = %v, want 90s", AI())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium changed to %v", Medium())
	}
}

func TestConfigure_IgnoresNonPositive(t *testing.T) {
	Reset()
	defer Reset()

	Configure(Config{Ping: -1, Long: 0})
	if Ping() != DefaultPing || Long() != DefaultLong {
		t.Errorf("non-positive values applied: %+v", Current())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 10*time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("err = %v, want DeadlineExceeded", ctx.Err())
	}
}
