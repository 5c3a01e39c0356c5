// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup promotes or creates the configured superadmin and starts the
// background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		if _, _, err := SeedAdmin(ctx, deps.MongoDatabase, appCfg.SuperAdminEmail, "", appCfg.SuperAdminPassword, true, logger); err != nil {
			logger.Error("superadmin bootstrap failed", zap.Error(err), zap.String("email", appCfg.SuperAdminEmail))
			return err
		}
	}

	if deps.Jobs != nil {
		deps.Jobs.Start()
		deps.Lifecycle.OnStop(deps.Jobs.Stop)
	}
	return nil
}
