// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/placementhub/internal/app/system/tasks"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends shared by every hook after ConnectDB.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client // nil when no AI cache is configured

	Jobs      *tasks.Scheduler
	Lifecycle *Lifecycle
}

// Lifecycle carries the background context for goroutines started by hooks
// and the functions Shutdown must call. WAFFLE passes DBDeps by value, so
// hooks share state through this pointer.
type Lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	stops []func()
}

func newLifecycle() *Lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifecycle{ctx: ctx, cancel: cancel}
}

// Context is cancelled when Shutdown runs.
func (l *Lifecycle) Context() context.Context { return l.ctx }

// OnStop registers f to run at shutdown, in reverse order of registration.
func (l *Lifecycle) OnStop(f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops = append(l.stops, f)
}

func (l *Lifecycle) stop() {
	l.cancel()
	l.mu.Lock()
	stops := l.stops
	l.stops = nil
	l.mu.Unlock()
	for i := len(stops) - 1; i >= 0; i-- {
		stops[i]()
	}
}
