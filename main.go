package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civicsync/config"
	"civicsync/controllers"
	"civicsync/reconciler"
	"civicsync/routes"
	"civicsync/service"
	"civicsync/store"
	"civicsync/validation"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	logger.Info("Connected to MongoDB")

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	logger.Info("Connected to Redis")

	st, err := store.NewMongo(db, rdb, cfg.ChangeChannel, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}

	rec := reconciler.New(st, logger, cfg.PollInterval)
	if _, err := rec.Refresh(ctx); err != nil {
		// The snapshot starts empty; the poll loop keeps retrying.
		logger.WithError(err).Warn("Initial snapshot load failed")
	}
	stopRec, err := rec.Start(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start reconciler")
	}
	defer stopRec()

	svc := service.NewIssueService(st, st, rec, logger)

	worker := validation.NewWorker(st, st, logger, cfg.ValidationInterval)
	worker.Start(ctx)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	ic := controllers.NewIssueController(svc, logger)
	ac := controllers.NewAuthController(db, svc, cfg, logger)

	routes.AuthRoutes(r, ac)
	routes.IssueRoutes(r, ic, rdb, cfg)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
