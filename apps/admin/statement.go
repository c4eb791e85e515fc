package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/services/export"
)

func (cli *commandLine) statement(ref string, rng attendance.DateRange, format, out string) error {
	if format != "text" && format != "xlsx" {
		return errors.Errorf("unknown format %q", format)
	}

	st, err := cli.statements.Build(context.Background(), ref, rng)
	if err != nil {
		return err
	}

	if format == "text" && out == "" {
		return exportsvc.WriteText(cli.out, st, cli.colored)
	}
	if out == "" {
		out = exportsvc.StatementFilename(st, format)
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating statement file")
	}
	if format == "xlsx" {
		err = exportsvc.WriteXLSX(f, st)
	} else {
		err = exportsvc.WriteText(f, st, false)
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return errors.Wrap(err, "writing statement")
	}
	_, _ = fmt.Fprintf(cli.out, "statement written to %s\n", out)
	return nil
}
