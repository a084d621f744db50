// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	userstore "github.com/wirastama/manpro/internal/app/store/users"
)

// Startup runs one-time initialization after DB connections and schema
// setup, before the HTTP handler is built. The only job here is promoting
// the configured system admin, so a fresh deployment has a user who can
// reach every workspace.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SystemAdminEmail == "" {
		return nil
	}

	n, err := userstore.New(deps.MongoDatabase).PromoteSystemAdmin(ctx, appCfg.SystemAdminEmail)
	if err != nil {
		logger.Error("system admin promotion failed", zap.Error(err))
		return err
	}
	if n == 0 {
		// The account may simply not be registered yet; promotion happens
		// on the next restart after registration.
		logger.Warn("system admin email not found, skipping promotion",
			zap.String("email", appCfg.SystemAdminEmail))
		return nil
	}
	logger.Info("system admin promoted", zap.String("email", appCfg.SystemAdminEmail))
	return nil
}
