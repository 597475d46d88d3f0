package main

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"rental_backend/app"
	"rental_backend/config"
	"rental_backend/routes"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	application := app.MustNew(cfg, logger)
	defer application.Close()

	// Periodic sweep backstop; the pre-request middleware handles the common
	// case, this catches long idle stretches and reconciles backlogs after an
	// outage.
	c := cron.New()
	if _, err := c.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		application.Sweeper.Run(context.Background())
	}); err != nil {
		logger.Fatal("schedule sweep", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	r := application.Router
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })
	routes.RegisterRoutes(r, application)

	logger.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
