package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/bankhub"
	"github.com/automation-hub/hub/internal/config"
	"github.com/automation-hub/hub/internal/http/api/admin"
	"github.com/automation-hub/hub/internal/http/api/front"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/ratelimit"
	"github.com/automation-hub/hub/internal/watcher"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// RunServer boots the HTTP API with the background syncer and config watcher.
func RunServer(ctx context.Context, appCfg config.AppConfig, port int) error {
	if port <= 0 {
		port = 8318
	}
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	svc, err := Open(cfg)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	rateSettings := ratelimit.NewSettingsStore(ratelimit.SettingsFromConfig(cfg.RateLimit))
	limiter := ratelimit.NewManager(rateSettings.Load, nil, nil)

	engine := NewEngine(svc, limiter)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	syncer := bankhub.NewSyncer(svc.Importer.WithSource(models.ImportSourceSync), cfg.BankHub.ExportURL, cfg.BankHub.SyncInterval)
	syncer.Start(runCtx)

	cfgWatcher := watcher.New(configPath, func(next config.Config) {
		rateSettings.Store(ratelimit.SettingsFromConfig(next.RateLimit))
		log.Infof("rate limit settings reloaded (limit=%d redis=%t)", next.RateLimit.Limit, next.RateLimit.Redis.Enabled)
	})
	if errStart := cfgWatcher.Start(runCtx); errStart != nil {
		return errStart
	}
	defer func() { _ = cfgWatcher.Stop() }()

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("hub listening on %s (module=%s config=%s)", server.Addr, svc.Importer.Module(), configPath)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			serveErr <- errServe
		}
		close(serveErr)
	}()

	select {
	case errServe := <-serveErr:
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	log.Info("shutting down hub")
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown server: %w", errShutdown)
	}
	return nil
}

// NewEngine builds the gin engine with every route registered.
func NewEngine(svc *Services, limiter *ratelimit.Manager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	admin.RegisterAdminRoutes(engine, admin.Deps{
		Store:    svc.Store,
		Importer: svc.Importer,
		Mappings: svc.Mappings,
		Limiter:  limiter,
		JWT:      svc.Config.JWT,
	})
	front.RegisterFrontRoutes(engine, svc.Store, admin.UserAuthMiddleware(svc.Store, svc.Config.JWT))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// requestLogger logs one line per request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(log.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}
