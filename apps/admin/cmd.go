package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/storage/database"
)

var (
	migrateFunc = database.RunMigration // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	out        io.Writer
	colored    bool
	ledger     *attendance.Service
	statements *attendance.StatementBuilder
	students   student.Registry
	openDB     func() (*sql.DB, error) // migrations always run against the SQL database
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  verify [-student REF]                          - check ledgers against their invariants (all when REF is omitted)")
	_, _ = fmt.Fprintln(cli.out, "  repair -student REF                            - rebuild a ledger's aggregates from its daily log")
	_, _ = fmt.Fprintln(cli.out, "  statement -student REF [-from] [-to] [-format text|xlsx] [-out FILE]")
	_, _ = fmt.Fprintln(cli.out, "                                                 - print or save an attendance statement")
	_, _ = fmt.Fprintln(cli.out, "  heatmap -student REF [-days N] [-anchor DATE]  - print the attendance calendar")
	_, _ = fmt.Fprintln(cli.out, "  addstudent -ref REF -name NAME [-roll] [-course] [-email]")
	_, _ = fmt.Fprintln(cli.out, "                                                 - add or update a student")
	_, _ = fmt.Fprintln(cli.out, "  token -subject REF [-roles ROLE,ROLE]          - issue an API token")
	_, _ = fmt.Fprintln(cli.out, "  migrate up|down|redo                           - run database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	verifyCmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	verifyRef := verifyCmd.String("student", "", "The student reference. Every ledger is verified when omitted.")

	repairCmd := flag.NewFlagSet("repair", flag.ContinueOnError)
	repairRef := repairCmd.String("student", "", "The student reference.")

	statementCmd := flag.NewFlagSet("statement", flag.ContinueOnError)
	statementRef := statementCmd.String("student", "", "The student reference.")
	statementFrom := statementCmd.String("from", "", "First date of the daily breakdown (YYYY-MM-DD).")
	statementTo := statementCmd.String("to", "", "Last date of the daily breakdown (YYYY-MM-DD).")
	statementFormat := statementCmd.String("format", "text", "Output format: text or xlsx.")
	statementOut := statementCmd.String("out", "", "Output file. Defaults to stdout for text and a generated file name for xlsx.")

	heatmapCmd := flag.NewFlagSet("heatmap", flag.ContinueOnError)
	heatmapRef := heatmapCmd.String("student", "", "The student reference.")
	heatmapDays := heatmapCmd.Int("days", cli.conf.Attendance.HeatmapWindowDays, "Number of days shown, ending at the anchor.")
	heatmapAnchor := heatmapCmd.String("anchor", "", "Last date shown (YYYY-MM-DD). Defaults to today.")

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentRef := addStudentCmd.String("ref", "", "The student reference.")
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentRoll := addStudentCmd.String("roll", "", "The student's roll number.")
	addStudentCourse := addStudentCmd.String("course", "", "The student's course.")
	addStudentEmail := addStudentCmd.String("email", "", "The student's email address.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenSubject := tokenCmd.String("subject", "", "The token subject: a student reference, or a staff identifier.")
	tokenRoles := tokenCmd.String("roles", "", "Comma separated roles, e.g. admin:,teacher:")

	for _, fs := range []*flag.FlagSet{verifyCmd, repairCmd, statementCmd, heatmapCmd, addStudentCmd, tokenCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "verify":
		if err := verifyCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.verify(*verifyRef)

	case "repair":
		if err := repairCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *repairRef == "" {
			repairCmd.Usage()
			return errHelp
		}
		return cli.repair(*repairRef)

	case "statement":
		if err := statementCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *statementRef == "" {
			statementCmd.Usage()
			return errHelp
		}
		rq := attendance.RangeQuery{From: *statementFrom, To: *statementTo}
		if err := rq.Validate(); err != nil {
			return err
		}
		return cli.statement(*statementRef, rq.Range(), *statementFormat, *statementOut)

	case "heatmap":
		if err := heatmapCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *heatmapRef == "" || *heatmapDays <= 0 {
			heatmapCmd.Usage()
			return errHelp
		}
		return cli.heatmap(*heatmapRef, *heatmapDays, *heatmapAnchor)

	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addStudentRef == "" || *addStudentName == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(student.Student{
			Ref:        *addStudentRef,
			Name:       *addStudentName,
			RollNumber: *addStudentRoll,
			Course:     *addStudentCourse,
			Email:      *addStudentEmail,
		})

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		var roles []string
		for _, r := range strings.Split(*tokenRoles, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		return cli.token(*tokenSubject, roles)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2])

	default:
		cli.printUsage()
		return errHelp
	}
}
