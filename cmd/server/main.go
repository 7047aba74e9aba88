package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slimfile/slimfile/internal/api"
	"github.com/slimfile/slimfile/internal/config"
	"github.com/slimfile/slimfile/internal/download"
	"github.com/slimfile/slimfile/internal/logging"
	"github.com/slimfile/slimfile/internal/taskmgr"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	registry := download.NewRegistry(cfg.DownloadGracePeriod(), cfg.DownloadRetention(), logger)
	go func() {
		for {
			time.Sleep(time.Hour)
			if cleaned := registry.Sweep(); cleaned > 0 {
				logger.Info("download registry swept",
					zap.Int("cleaned", cleaned),
					zap.Int("active_handles", registry.Len()),
				)
			}
		}
	}()

	tm, err := taskmgr.New(cfg, registry, logger)
	if err != nil {
		logger.Fatal("task manager init failed", zap.Error(err))
	}
	defer tm.Close()

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	api.RegisterHandlers(r, tm, registry, logger)

	logger.Info("server starting", zap.Int("port", cfg.Server.Port))
	if err := r.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
