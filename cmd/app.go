package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"catalog/api"
	"catalog/config"
	"catalog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用程序结构体
type App struct {
	config   *config.Config
	router   *api.Router
	server   *http.Server
	db       *gorm.DB
	log      *zap.Logger
	shutdown []func(context.Context) error
}

func (a *App) onShutdown(fn func(context.Context) error) {
	a.shutdown = append(a.shutdown, fn)
}

// Run 启动 HTTP 服务，ctx 取消后在 server.shutdown_timeout 内优雅退出
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting",
			zap.String("addr", a.server.Addr),
			zap.String("health", "/api/v1/health"))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			a.close(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.close(shutdownCtx)
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.log.Info("Server stopped")
	return nil
}

// close releases the database pool and flushes telemetry
func (a *App) close(ctx context.Context) {
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil {
			a.log.Warn("Shutdown hook failed", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.log.Warn("Failed to close database", zap.Error(err))
			}
		}
	}
	_ = logger.Sync()
}

// GetServer 获取 gin 引擎（用于测试）
func (a *App) GetServer() *gin.Engine {
	return a.router.GetEngine()
}
