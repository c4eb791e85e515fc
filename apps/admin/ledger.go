package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/services/export"
)

var nowFunc = time.Now // mockable

func (cli *commandLine) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if !cli.colored {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// verify checks one ledger, or all of them when ref is empty.
// It fails when any ledger is inconsistent, so that it can gate scripts.
func (cli *commandLine) verify(ref string) error {
	ctx := context.Background()

	var results []attendance.VerifyResult
	if ref == "" {
		var err error
		if results, err = cli.ledger.VerifyAll(ctx); err != nil {
			return err
		}
	} else {
		err := cli.ledger.Verify(ctx, ref)
		if err != nil && !attendance.IsConsistencyFault(err) {
			return err
		}
		results = append(results, attendance.VerifyResult{StudentRef: ref, Err: err})
	}

	var faults int
	for _, r := range results {
		if r.Err != nil {
			faults++
			_, _ = fmt.Fprintf(cli.out, "%s %s: %v\n", cli.paint(color.FgRed, "FAULT"), r.StudentRef, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(cli.out, "%s    %s\n", cli.paint(color.FgGreen, "ok"), r.StudentRef)
	}
	_, _ = fmt.Fprintf(cli.out, "%d ledgers checked, %d inconsistent\n", len(results), faults)
	if faults > 0 {
		return errors.Errorf("%d inconsistent ledgers; run repair on each", faults)
	}
	return nil
}

func (cli *commandLine) repair(ref string) error {
	rec, err := cli.ledger.Repair(context.Background(), ref)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "repaired %s: %d/%d present over %d subjects\n",
		rec.StudentRef, rec.Overall.Present, rec.Overall.Total, len(rec.SubjectTotals))
	return nil
}

func (cli *commandLine) heatmap(ref string, days int, anchor string) error {
	if anchor == "" {
		anchor = attendance.Today(nowFunc())
	} else if !attendance.ValidDate(anchor) {
		return errors.Errorf("anchor %q is not a YYYY-MM-DD date", anchor)
	}

	rec, err := cli.ledger.Snapshot(context.Background(), ref)
	if err != nil {
		return err
	}
	rng := attendance.DateRange{From: attendance.AddDays(anchor, -(days - 1)), To: anchor}
	weeks := attendance.BuildGrid(attendance.DailyStatuses(rec, nil, rng), days, anchor)
	return exportsvc.WriteHeatmap(cli.out, weeks, cli.colored)
}
