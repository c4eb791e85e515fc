package emailsvc

import (
	"bytes"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/services/export"
)

var errNoRecipient = errors.New("student has no email address")

// StatementMailer emails attendance statements with the workbook attached.
type StatementMailer struct {
	mail core.EmailService
}

func NewStatementMailer(svc core.EmailService) *StatementMailer {
	return &StatementMailer{mail: svc}
}

// Send queues st for delivery to the given recipients, or to the student when there are none.
func (m *StatementMailer) Send(st attendance.Statement, to ...mail.Address) error {
	if len(to) == 0 {
		if st.Student.Email == "" {
			return core.NewValidationError(errNoRecipient, core.FieldError{Field: "email", Error: errNoRecipient.Error()})
		}
		to = []mail.Address{{Name: st.Student.Name, Address: st.Student.Email}}
	}

	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Attendance statement",
		TemplateName: "statement",
		TemplateData: st,
	}

	var buf bytes.Buffer
	if err := exportsvc.WriteXLSX(&buf, st); err != nil {
		return errors.Wrap(err, "rendering statement workbook")
	}
	if err := msg.Attach(&buf, exportsvc.StatementFilename(st, "xlsx"), exportsvc.XLSXContentType); err != nil {
		return errors.Wrap(err, "attaching statement workbook")
	}

	m.mail.SendMessages(msg)
	return nil
}
