package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/seating/apps/api/echo"
	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	logsvc "github.com/trezcool/seating/services/logger"
	"github.com/trezcool/seating/storage/database"
	sqlxrepos "github.com/trezcool/seating/storage/database/sqlx"
	redislock "github.com/trezcool/seating/storage/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	sugar, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(sugar.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer func() { _ = logger.Sync() }()

	dbLogger := logsvc.NewRollbarLogger(sugar.Named("db"), conf)
	dbLogger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	validate, translator := seating.NewValidator()
	opts := []seating.Option{
		seating.WithDefaults(seating.DefaultsFromConfig(conf.Seating)),
		seating.WithValidator(validate, translator),
	}

	// multiple API processes share the redis lock
	if conf.Redis.Addr != "" {
		client, err := redislock.NewClient(context.Background(), conf.Redis)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer func() { _ = client.Close() }()
		opts = append(opts, seating.WithLocker(redislock.NewLocker(client, conf.Redis.LockTTL, logger)))
	}
	seatingSvc := seating.NewService(sqlxrepos.NewSeatingRepository(db), logger, opts...)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), "config", conf.String())
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			SeatingSvc: seatingSvc,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
