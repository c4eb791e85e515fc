package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biru-ka2/Attendify-sub000/apps/api/echo"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/storage/database"
	"github.com/biru-ka2/Attendify-sub000/storage/database/inmem"
	"github.com/biru-ka2/Attendify-sub000/tests"
)

type testCLI struct {
	*commandLine
	out  *bytes.Buffer
	repo attendance.Repository
}

func setup(t *testing.T) testCLI {
	t.Helper()
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := inmemdb.Open()
	repo := inmemdb.NewAttendanceRepository(db)
	students := inmemdb.NewStudentDirectory(db)
	ledger := attendance.NewService(repo, logger, conf)

	// start CLI
	out := new(bytes.Buffer)
	return testCLI{
		commandLine: &commandLine{
			conf:       conf,
			out:        out,
			ledger:     ledger,
			statements: attendance.NewStatementBuilder(ledger, students, conf.Attendance.CriticalThreshold),
			students:   students,
			openDB: func() (*sql.DB, error) {
				return sql.Open("postgres", "postgres://localhost/attendify_test?sslmode=disable")
			},
		},
		out:  out,
		repo: repo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func runCLITests(t *testing.T, cli testCLI, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli.out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			for _, s := range tt.wantOut {
				assert.Contains(t, cli.out.String(), s)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "repair without student", args: []string{"repair"}, wantErr: errHelp},
		{name: "statement without student", args: []string{"statement"}, wantErr: errHelp},
		{name: "heatmap without student", args: []string{"heatmap"}, wantErr: errHelp},
		{name: "addstudent without name", args: []string{"addstudent", "-ref", "s1"}, wantErr: errHelp},
		{name: "token without subject", args: []string{"token"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"verify", "-lol"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	migrateFunc = func(command string, db *sql.DB) error {
		switch command {
		case "up", "down", "redo":
			ran = append(ran, command)
			return nil
		}
		return fmt.Errorf("unknown migration command %q", command)
	}
	defer func() { migrateFunc = database.RunMigration }()

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `unknown migration command "lol"`},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
	})
	assert.Equal(t, []string{"up", "down", "redo"}, ran)
}

func Test_commandLine_verifyRepair(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	testutil.MarkDays(t, cli.ledger, "s1", "OS", "2025-07-12", "2025-07-14")
	testutil.MarkDays(t, cli.ledger, "s2", "CN", "2025-07-12", "2025-07-12")

	runCLITests(t, cli, []cliTest{
		{name: "all consistent", args: []string{"verify"}, wantOut: []string{"ok    s1", "ok    s2", "2 ledgers checked, 0 inconsistent"}},
		{name: "unknown student", args: []string{"verify", "-student", "s9"}, wantErr: attendance.ErrNotFound},
	})

	// drift the cached tally away from the daily log
	rec, err := cli.repo.GetRecord(ctx, "s1")
	require.NoError(t, err)
	rec.SubjectTotals["OS"] = attendance.Tally{Present: 5, Total: 5}
	_, err = cli.repo.ReplaceRecord(ctx, rec)
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{
			name:       "fault found",
			args:       []string{"verify"},
			wantErrStr: "1 inconsistent ledgers",
			wantOut:    []string{"FAULT s1", attendance.InvSubjectPresent, "ok    s2"},
		},
		{
			name:       "one student",
			args:       []string{"verify", "-student", "s1"},
			wantErrStr: "1 inconsistent ledgers",
			wantOut:    []string{"1 ledgers checked, 1 inconsistent"},
		},
		{name: "repair", args: []string{"repair", "-student", "s1"}, wantOut: []string{"repaired s1: 3/5 present over 1 subjects"}},
		{name: "consistent again", args: []string{"verify", "-student", "s1"}, wantOut: []string{"ok    s1"}},
		{name: "repair unknown student", args: []string{"repair", "-student", "s9"}, wantErr: attendance.ErrNotFound},
	})
}

func Test_commandLine_students(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{
			name: "add",
			args: []string{"addstudent", "-ref", " s1 ", "-name", "Abebe Kebede", "-roll", "CS-01", "-email", "Abebe@Test.EDU"},
		},
	})

	stu, err := cli.students.GetStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, student.Student{Ref: "s1", Name: "Abebe Kebede", RollNumber: "CS-01", Email: "abebe@test.edu"}, stu)
}

func Test_commandLine_statement(t *testing.T) {
	cli := setup(t)
	testutil.PutStudent(t, cli.students, "s1", "Abebe Kebede")
	testutil.MarkDays(t, cli.ledger, "s1", "OS", "2025-07-12", "2025-07-14")
	dir := t.TempDir()

	runCLITests(t, cli, []cliTest{
		{name: "unknown student", args: []string{"statement", "-student", "s9"}, wantErr: student.ErrNotFound},
		{name: "bad date", args: []string{"statement", "-student", "s1", "-from", "July"}, wantErrStr: "from"},
		{name: "bad format", args: []string{"statement", "-student", "s1", "-format", "pdf"}, wantErrStr: `unknown format "pdf"`},
		{
			name:    "text to stdout",
			args:    []string{"statement", "-student", "s1", "-from", "2025-07-13"},
			wantOut: []string{"Abebe Kebede", "2025-07-13 to today", "2025-07-14"},
		},
		{
			name:    "xlsx to file",
			args:    []string{"statement", "-student", "s1", "-format", "xlsx", "-out", filepath.Join(dir, "s1.xlsx")},
			wantOut: []string{"statement written to"},
		},
	})

	fi, err := os.Stat(filepath.Join(dir, "s1.xlsx"))
	require.NoError(t, err)
	assert.True(t, fi.Size() > 0)
}

func Test_commandLine_heatmap(t *testing.T) {
	cli := setup(t)
	testutil.MarkDays(t, cli.ledger, "s1", "OS", "2025-07-14", "2025-07-15")
	nowFunc = testutil.FixedNow("2025-07-20")
	defer func() { nowFunc = time.Now }()

	runCLITests(t, cli, []cliTest{
		{name: "default anchor", args: []string{"heatmap", "-student", "s1", "-days", "7"}, wantOut: []string{"Mon #", "Tue #"}},
		{name: "bad anchor", args: []string{"heatmap", "-student", "s1", "-anchor", "tomorrow"}, wantErrStr: "anchor"},
		{name: "no ledger", args: []string{"heatmap", "-student", "s9"}, wantErr: attendance.ErrNotFound},
	})
}

func Test_commandLine_token(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "issue", args: []string{"token", "-subject", "t1", "-roles", "teacher:, admin:"}},
	})

	raw := strings.TrimSpace(cli.out.String())
	claims := new(echoapi.Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cli.conf.SecretKey), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.Subject)
	assert.Equal(t, []string{"teacher:", "admin:"}, claims.Roles)
	assert.True(t, claims.CanAccess("s1"))
}
