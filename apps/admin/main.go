package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	logsvc "github.com/trezcool/seating/services/logger"
	"github.com/trezcool/seating/storage/database"
	sqlxrepos "github.com/trezcool/seating/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	sugar, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewLogger(sugar.Named("admin"))

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	// `migrate` manages the schema itself
	if len(os.Args) < 2 || os.Args[1] != "migrate" {
		if err = database.Migrate(context.Background(), db); err != nil {
			logger.Fatal("migrating database", err)
		}
	}

	// start CLI
	cli := commandLine{
		db: db,
		svc: seating.NewService(
			sqlxrepos.NewSeatingRepository(db),
			logger,
			seating.WithDefaults(seating.DefaultsFromConfig(conf.Seating)),
		),
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
