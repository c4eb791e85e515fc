package main

import "github.com/pkg/errors"

func (cli *commandLine) migrate(command string) error {
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()
	return migrateFunc(command, db)
}
