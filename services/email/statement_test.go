package emailsvc

import (
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/tests"
)

func TestStatementMailer_Send(t *testing.T) {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf.WorkDir, true, logger)
	ResetSentMessages()

	rec := attendance.NewRecord("s1", time.Now())
	rec.Daily[attendance.DailyKey{Subject: "OS", Date: "2025-07-12"}] = attendance.StatusPresent
	rec.SubjectTotals["OS"] = attendance.Tally{Present: 1, Total: 4}
	rec.SubjectOrder = []string{"OS"}
	rec = attendance.RecomputeOverall(rec)
	st := attendance.Statement{
		Student:     student.Student{Ref: "s1", Name: "Abebe Kebede", Email: "abebe@test.edu"},
		GeneratedAt: time.Date(2025, 7, 31, 8, 0, 0, 0, time.UTC),
		Report:      attendance.BuildReport(rec, nil, attendance.DateRange{From: "2025-07-01", To: "2025-07-31"}),
	}

	mailer := NewStatementMailer(NewConsoleServiceMock(conf, logger))
	require.NoError(t, mailer.Send(st))
	require.NoError(t, mailer.Send(st, mail.Address{Address: "advisor@test.edu"}))

	sent := GetSentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "advisor@test.edu", sent[1].To[0].Address)
	msg := sent[0]
	assert.Equal(t, "abebe@test.edu", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Hello Abebe Kebede")
	assert.Contains(t, msg.TextContent, "2025-07-01 to 2025-07-31")
	assert.Contains(t, msg.TextContent, "25.0% (critical)")
	assert.Contains(t, msg.TextContent, "below the required threshold")
	assert.Contains(t, msg.HTMLContent, "<td>OS</td>")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "attendance-s1-20250731.xlsx", msg.Attachments[0].Filename)

	st.Student.Email = ""
	err := mailer.Send(st)
	_, ok := err.(*core.ValidationError)
	assert.True(t, ok)
}
