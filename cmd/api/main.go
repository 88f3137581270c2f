package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"crewgate/internal/authz"
	"crewgate/internal/db"
	"crewgate/internal/kiosk"
	"crewgate/internal/metrics"
	"crewgate/internal/ratelimiter"
	"crewgate/internal/session"
	"crewgate/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "1.0.0"

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() rateLimiterConfig {
	cfg := rateLimiterConfig{
		enabled:    true,
		ipRequests: 20,
		ipWindow:   time.Minute,
		redisAddr:  os.Getenv("RATE_LIMITER_REDIS_ADDR"),
	}

	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsed, err := strconv.ParseBool(val); err == nil {
			cfg.enabled = parsed
		} else {
			log.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", cfg.enabled)
		}
	}
	if val, exists := os.LookupEnv("RATE_LIMITER_IP_REQUESTS"); exists {
		if parsed, err := strconv.Atoi(val); err == nil {
			cfg.ipRequests = parsed
		} else {
			log.Println("Invalid RATE_LIMITER_IP_REQUESTS, defaulting to", cfg.ipRequests)
		}
	}
	return cfg
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	maxConns, err := strconv.Atoi(os.Getenv("DB_MAX_CONNS"))
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_CONNS: %v", err)
	}

	// The session signing secret is the one hard startup requirement:
	// without it every token this instance issued or will validate is
	// meaningless.
	sessionSecret := os.Getenv("AUTH_SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("AUTH_SESSION_SECRET must be set")
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    maxConns,
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			session: sessionConfig{
				secret:     sessionSecret,
				iss:        "crewgate",
				cookieName: "staff_session",
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("could not initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	dbpool, err := db.New(cfg.db.addr, int32(cfg.db.maxConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatalw("could not connect to database", "error", err)
	}
	defer dbpool.Close()
	logger.Infow("database connection pool established")

	metrics.Init()

	// Process-local limiter by default; Redis-backed when an address is
	// configured so horizontally scaled instances share one budget.
	var limiter ratelimiter.Limiter
	if cfg.rateLimiter.redisAddr != "" {
		limiter = ratelimiter.NewRedisLimiter(redis.NewClient(&redis.Options{
			Addr: cfg.rateLimiter.redisAddr,
		}))
		logger.Infow("using shared rate limit store", "addr", cfg.rateLimiter.redisAddr)
	} else {
		limiter = ratelimiter.NewFixedWindowLimiter()
	}

	storage := store.NewStorage(dbpool)
	sessions := session.NewManager(cfg.auth.session.secret, cfg.auth.session.iss)
	resolver := authz.NewResolver(authz.NewRepository(dbpool))
	kioskSvc := kiosk.NewService(storage.Tenants, storage.Staff, limiter, sessions, logger)

	app := &application{
		config:   cfg,
		store:    storage,
		logger:   logger,
		sessions: sessions,
		authz:    resolver,
		kiosk:    kioskSvc,
		limiter:  limiter,
	}

	mux := app.mount()
	logger.Fatal(app.run(mux))
}
