// Package logger provides a singleton Zap logger with context-based scoping.
//
//   - Singleton: one global instance, initialized once with Init().
//   - Context scoping: each request can carry a scoped logger with extra
//     fields (request_id, username, ...) without building a new core.
//   - Environments: "dev" uses a colored console encoder, "prod" uses JSON.
//
// Initialization (once, in main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// In handlers:
//
//	log := logger.From(ctx)
//	log.Info("session issued", logger.Username(u))
package logger
