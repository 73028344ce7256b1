package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"bizboost/internal/challenge"
	"bizboost/internal/domain/businesses"
	"bizboost/internal/domain/storage"
	"bizboost/internal/metrics"
	"bizboost/internal/ratelimiter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: envInt("RATELIMITER_REQUESTS_COUNT", 20),
		TimeFrame:            5 * time.Second,
		Enabled:              envBool("RATE_LIMITER_ENABLED", true),
	}
}

func envString(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		fmt.Println("Invalid", key, "defaulting to", def)
		return def
	}
	return parsed
}

func envBool(key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		fmt.Println("Invalid", key, "defaulting to", def)
		return def
	}
	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		fmt.Println("Invalid", key, "defaulting to", def)
		return def
	}
	return parsed
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	if os.Getenv("LOG_LEVEL") != "" {
		if err := level.Set(os.Getenv("LOG_LEVEL")); err != nil {
			return nil, err
		}
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

func loadConfig() config {
	return config{
		addr:       envString("ADDR", ":8080"),
		env:        envString("ENV", "development"),
		dataFile:   envString("DATA_FILE", "business_data.json"),
		strictLoad: envBool("STRICT_LOAD", false),
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		challenge: challengeConfig{
			enabled: envBool("CHALLENGE_ENABLED", true),
			secret:  os.Getenv("CHALLENGE_SECRET"),
			ttl:     envDuration("CHALLENGE_TTL", 10*time.Minute),
		},
		rateLimiter: LoadRateLimiterConfig(),
	}
}

func main() {
	// .env is optional; real deployments pass plain environment variables
	envErr := godotenv.Load()

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Infow("no .env file loaded", "error", envErr)
	}

	cfg := loadConfig()
	if cfg.challenge.secret == "" {
		if cfg.env == envProduction {
			logger.Fatal("CHALLENGE_SECRET must be set in production")
		}
		cfg.challenge.secret = "dev-challenge-secret"
		logger.Warn("CHALLENGE_SECRET not set, using development secret")
	}

	if !cfg.challenge.enabled && cfg.env == envProduction {
		logger.Warn("CHALLENGE_ENABLED=false is ignored in production")
	}

	container, err := storage.NewContainer(context.Background(), cfg.dataFile, logger, businesses.Options{
		StrictLoad: cfg.strictLoad,
	})
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("directory ready", "data_file", container.DataFile())

	app := &application{
		config:      cfg,
		logger:      logger,
		store:       container,
		challenges:  challenge.NewIssuer(cfg.challenge.secret, cfg.challenge.ttl),
		rateLimiter: ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame),
		metrics:     metrics.New(),
	}
	app.metrics.TrackDirectorySize(func() int {
		return len(container.Businesses.List(context.Background()))
	})

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("businesses", expvar.Func(func() any {
		return len(container.Businesses.List(context.Background()))
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
