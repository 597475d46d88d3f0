package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings carries every tunable the service needs. It is built once in main
// and passed into constructors; nothing reads the environment after startup.
type Settings struct {
	ListenAddr  string
	DatabaseDSN string
	RedisAddr   string
	RedisPwd    string

	WebOrigin  string
	SessionTTL time.Duration

	// Lifecycle tunables.
	ReservationExpiry time.Duration // how long a RESERVED session waits for pickup
	LimiterWindow     time.Duration // trailing window for churn counting
	LimiterThreshold  int           // churned sessions allowed inside the window
	OverdueCutoffHour int           // UTC hour-of-day used as the default deadline

	// Sweep cadence and the pre-request reconcile throttle.
	SweepInterval time.Duration
	SweepThrottle time.Duration
	SweepBatch    int
}

func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using environment: %v", err)
	}

	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		if n, err := strconv.Atoi(get(k, "")); err == nil {
			return n
		}
		return def
	}

	return Settings{
		ListenAddr:  ":" + get("PORT", "3001"),
		DatabaseDSN: get("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=rental port=5432 sslmode=disable"),
		RedisAddr:   get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),

		WebOrigin:  get("WEB_ORIGIN", "http://localhost:3000"),
		SessionTTL: time.Duration(getInt("SESSION_TTL_SECONDS", 86400)) * time.Second,

		ReservationExpiry: time.Duration(getInt("RESERVATION_EXPIRY_MINUTES", 15)) * time.Minute,
		LimiterWindow:     time.Duration(getInt("LIMITER_WINDOW_MINUTES", 30)) * time.Minute,
		LimiterThreshold:  getInt("LIMITER_THRESHOLD", 2),
		OverdueCutoffHour: getInt("OVERDUE_CUTOFF_HOUR", 18),

		SweepInterval: time.Duration(getInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		SweepThrottle: time.Duration(getInt("SWEEP_THROTTLE_SECONDS", 5)) * time.Second,
		SweepBatch:    getInt("SWEEP_BATCH", 500),
	}
}
