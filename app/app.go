package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rental_backend/config"
	"rental_backend/db"
	"rental_backend/rental"
	"rental_backend/session"
)

// Aliases so handlers read a little shorter.
type Ctx = gin.Context
type H = gin.H

// App aggregates the service dependencies.
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	Log     *zap.Logger
	Config  config.Settings
	Repo    *db.Repo
	Rental  *rental.Service
	Sweeper *rental.Sweeper

	authSess *session.AuthSessionStore
}

func (a *App) AuthSessions() *session.AuthSessionStore { return a.authSess }

func MustNew(cfg config.Settings, log *zap.Logger) *App {
	conn, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}

	repo := db.NewRepo(conn)
	svc := rental.NewService(repo, log, rental.Options{
		LimiterWindow:     cfg.LimiterWindow,
		LimiterThreshold:  cfg.LimiterThreshold,
		OverdueCutoffHour: cfg.OverdueCutoffHour,
	})
	sweeper := rental.NewSweeper(svc, repo, log, cfg.ReservationExpiry, cfg.SweepBatch, rdb)

	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:   r,
		DB:       conn,
		RDB:      rdb,
		Log:      log,
		Config:   cfg,
		Repo:     repo,
		Rental:   svc,
		Sweeper:  sweeper,
		authSess: session.NewAuthSessionStore(rdb, cfg.SessionTTL),
	}
}

func (a *App) Close() { _ = a.RDB.Close() }
