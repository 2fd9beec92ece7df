/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift allowance server.
  Handles configuration, table loading, dependency injection, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load .env, config.yaml and environment (config package)
  2. Load rate schedule, holiday table and duty types; any malformed table
     is fatal
  3. Initialize SQLite store and seed the holiday table on first run
  4. Create API handler and router
  5. Start server with graceful shutdown

CONFIGURATION:
  PORT, DB_PATH, LOG_LEVEL, ENVIRONMENT, TIMEZONE,
  RATE_SCHEDULE_FILE, HOLIDAY_FILE, DUTY_TYPES_FILE,
  FULL_ALLOWANCE_HOURS, HALF_ALLOWANCE_HOURS, ALLOWED_ORIGINS
  DB_PATH=":memory:" runs without a database file.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/shift-allowance/api"
	"github.com/warp/shift-allowance/config"
	"github.com/warp/shift-allowance/factory"
	"github.com/warp/shift-allowance/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg)
	loc := cfg.Location()

	// Static tables
	tables := factory.NewTableFactory(loc)
	rates, err := tables.LoadRateSchedule(cfg.RateScheduleFile)
	if err != nil {
		logrus.Fatalf("Failed to load rate schedule: %v", err)
	}
	holidays, err := tables.LoadHolidays(cfg.HolidayFile)
	if err != nil {
		logrus.Fatalf("Failed to load holidays: %v", err)
	}
	types, err := tables.LoadDutyTypes(cfg.DutyTypesFile)
	if err != nil {
		logrus.Fatalf("Failed to load duty types: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath, sqlite.WithLocation(loc))
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	seeded, err := store.SeedHolidays(ctx, holidays.Holidays())
	if err != nil {
		logrus.Fatalf("Failed to seed holidays: %v", err)
	}
	if seeded > 0 {
		logrus.WithField("holidays", seeded).Info("Seeded holiday table")
	}

	handler := api.NewHandler(store, api.Options{
		Rates:          rates,
		DutyTypes:      types,
		Thresholds:     cfg.Thresholds(),
		Location:       loc,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logrus.StandardLogger(),
	})
	if err := handler.LoadHolidays(ctx); err != nil {
		logrus.Fatalf("Failed to load holidays from database: %v", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"timezone": loc.String(),
			"db":       cfg.DBPath,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logrus.Info("Server stopped")
}
