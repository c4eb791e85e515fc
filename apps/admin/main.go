package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/services/logger"
	"github.com/biru-ka2/Attendify-sub000/storage"
	"github.com/biru-ka2/Attendify-sub000/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	stores, err := storage.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Driver, err), err)
	}

	ledger := attendance.NewService(stores.Attendance, logger, conf)
	cli := commandLine{
		conf:       conf,
		out:        os.Stdout,
		colored:    term.IsTerminal(int(os.Stdout.Fd())),
		ledger:     ledger,
		statements: attendance.NewStatementBuilder(ledger, stores.Students, conf.Attendance.CriticalThreshold),
		students:   stores.Students,
		openDB: func() (*sql.DB, error) {
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}

	err = cli.run(os.Args)
	if cErr := stores.Close(); cErr != nil {
		logger.Error(fmt.Sprintf("closing storage: %v", cErr), cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
