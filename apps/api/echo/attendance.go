package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/services/email"
	"github.com/biru-ka2/Attendify-sub000/services/export"
)

const (
	defaultHeatmapDays = 182
	maxHeatmapDays     = 3660

	formatJSON = "json"
	formatXLSX = "xlsx"
	formatText = "text"
)

var validate, translator = core.NewValidator()

type attendanceApi struct {
	conf       *core.Config
	logger     core.Logger
	ledger     *attendance.Service
	statements *attendance.StatementBuilder
	mailer     *emailsvc.StatementMailer
	nowFunc    func() time.Time
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *attendanceApi) {
	sg := g.Group("/students/:ref", jwt, studentAccessMiddleware())

	sg.GET("/attendance", api.retrieve)
	sg.POST("/attendance/mark", api.mark)
	sg.POST("/attendance/unmark", api.unmark)
	sg.GET("/attendance/summary", api.summary)
	sg.GET("/attendance/heatmap", api.heatmap)
	sg.GET("/attendance/verify", api.verify, adminMiddleware())
	sg.POST("/attendance/repair", api.repair, adminMiddleware())

	sg.POST("/subjects", api.addSubject)
	sg.DELETE("/subjects/:subject", api.removeSubject)

	sg.GET("/statement", api.statement)
	sg.POST("/statement/email", api.emailStatement)
}

// Handlers

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	rec, err := api.ledger.GetOrCreate(ctx.Request().Context(), ctx.Param("ref"))
	if err != nil {
		return errors.Wrap(err, "getting attendance record")
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}

	rec, err := api.ledger.Mark(ctx.Request().Context(), ctx.Param("ref"), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) unmark(ctx echo.Context) error {
	var data attendance.MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}

	rec, err := api.ledger.Unmark(ctx.Request().Context(), ctx.Param("ref"), data)
	if err != nil {
		return errors.Wrap(err, "unmarking attendance")
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) addSubject(ctx echo.Context) error {
	var data attendance.SubjectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectRequest")
	}

	rec, err := api.ledger.AddSubject(ctx.Request().Context(), ctx.Param("ref"), data)
	if err != nil {
		return errors.Wrap(err, "adding subject")
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) removeSubject(ctx echo.Context) error {
	if !bindBool(ctx, "confirm") {
		msg := "removing a subject deletes its history; pass confirm=true"
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "confirm", Error: msg})
	}

	data := attendance.SubjectRequest{Subject: ctx.Param("subject")}
	rec, err := api.ledger.RemoveSubject(ctx.Request().Context(), ctx.Param("ref"), data)
	if err != nil {
		return errors.Wrap(err, "removing subject")
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	rng, err := bindRange(ctx)
	if err != nil {
		return err
	}

	rec, err := api.ledger.GetOrCreate(ctx.Request().Context(), ctx.Param("ref"))
	if err != nil {
		return errors.Wrap(err, "getting attendance record")
	}

	views := attendance.Project(rec, bindSubjects(ctx), rng)
	present, total, pct := attendance.Totals(views)
	return ctx.JSON(http.StatusOK, SummaryResponse{
		StudentRef: rec.StudentRef,
		Range:      rng,
		Subjects:   views,
		Present:    present,
		Total:      total,
		Percentage: pct,
	})
}

func (api *attendanceApi) heatmap(ctx echo.Context) error {
	def := api.conf.Attendance.HeatmapWindowDays
	if def <= 0 {
		def = defaultHeatmapDays
	}
	days, err := bindInt(ctx, "days", def, maxHeatmapDays)
	if err != nil {
		return err
	}

	anchor := strings.TrimSpace(ctx.QueryParam("anchor"))
	if anchor == "" {
		anchor = attendance.Today(api.now())
	} else if !attendance.ValidDate(anchor) {
		msg := "anchor must be a calendar date in YYYY-MM-DD form"
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "anchor", Error: msg})
	}

	rec, err := api.ledger.GetOrCreate(ctx.Request().Context(), ctx.Param("ref"))
	if err != nil {
		return errors.Wrap(err, "getting attendance record")
	}

	rng := attendance.DateRange{From: attendance.AddDays(anchor, -(days - 1)), To: anchor}
	statuses := attendance.DailyStatuses(rec, bindSubjects(ctx), rng)
	return ctx.JSON(http.StatusOK, HeatmapResponse{
		StudentRef: rec.StudentRef,
		Anchor:     anchor,
		Days:       days,
		Weeks:      attendance.BuildGrid(statuses, days, anchor),
	})
}

func (api *attendanceApi) verify(ctx echo.Context) error {
	ref := ctx.Param("ref")
	err := api.ledger.Verify(ctx.Request().Context(), ref)
	if err != nil && !attendance.IsConsistencyFault(err) {
		return errors.Wrap(err, "verifying attendance record")
	}
	return ctx.JSON(http.StatusOK, newVerifyResponse(ref, err))
}

func (api *attendanceApi) repair(ctx echo.Context) error {
	rec, err := api.ledger.Repair(ctx.Request().Context(), ctx.Param("ref"))
	if err != nil {
		return errors.Wrap(err, "repairing attendance record")
	}
	if claims, err := getContextClaims(ctx); err == nil {
		api.logger.Info(fmt.Sprintf("attendance: %s repaired on request", rec.StudentRef), claims.actor())
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) statement(ctx echo.Context) error {
	rng, err := bindRange(ctx)
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(ctx.QueryParam("format")))
	if format == "" {
		format = formatJSON
	}
	if !(format == formatJSON || format == formatXLSX || format == formatText) {
		msg := "format must be one of json, xlsx, text"
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "format", Error: msg})
	}

	st, err := api.statements.Build(ctx.Request().Context(), ctx.Param("ref"), rng)
	if err != nil {
		return errors.Wrap(err, "building statement")
	}

	var buf bytes.Buffer
	switch format {
	case formatXLSX:
		if err = exportsvc.WriteXLSX(&buf, st); err != nil {
			return errors.Wrap(err, "rendering statement workbook")
		}
		attachment(ctx, exportsvc.StatementFilename(st, formatXLSX))
		return ctx.Blob(http.StatusOK, exportsvc.XLSXContentType, buf.Bytes())
	case formatText:
		if err = exportsvc.WriteText(&buf, st, false); err != nil {
			return errors.Wrap(err, "rendering statement text")
		}
		return ctx.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
	default:
		return ctx.JSON(http.StatusOK, st)
	}
}

func (api *attendanceApi) emailStatement(ctx echo.Context) error {
	var data StatementEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatementEmailRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	st, err := api.statements.Build(ctx.Request().Context(), ctx.Param("ref"), data.Range())
	if err != nil {
		return errors.Wrap(err, "building statement")
	}

	var to []mail.Address
	if data.Email != "" {
		to = append(to, mail.Address{Address: data.Email})
	}
	if err = api.mailer.Send(st, to...); err != nil {
		return errors.Wrap(err, "emailing statement")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The statement will be emailed shortly."})
}

func (api *attendanceApi) now() time.Time {
	if api.nowFunc == nil {
		return time.Now()
	}
	return api.nowFunc()
}

func attachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}

type (
	// RecordResponse is a ledger as served over HTTP, with the overall percentage rounded for display.
	RecordResponse struct {
		StudentRef string             `json:"student_ref"`
		Subjects   []SubjectTally     `json:"subjects"`
		Daily      attendance.Log     `json:"daily"`
		Overall    attendance.Overall `json:"overall"`
		Version    int64              `json:"version"`
	}

	SubjectTally struct {
		Subject    string  `json:"subject"`
		Present    int     `json:"present"`
		Total      int     `json:"total"`
		Percentage float64 `json:"percentage"`
	}

	SummaryResponse struct {
		StudentRef string                   `json:"student_ref"`
		Range      attendance.DateRange     `json:"range"`
		Subjects   []attendance.SubjectView `json:"subjects"`
		Present    int                      `json:"present"`
		Total      int                      `json:"total"`
		Percentage float64                  `json:"percentage"`
	}

	HeatmapResponse struct {
		StudentRef string            `json:"student_ref"`
		Anchor     string            `json:"anchor"`
		Days       int               `json:"days"`
		Weeks      []attendance.Week `json:"weeks"`
	}

	VerifyResponse struct {
		StudentRef string `json:"student_ref"`
		Consistent bool   `json:"consistent"`
		Invariant  string `json:"invariant,omitempty"`
		Subject    string `json:"subject,omitempty"`
		Detail     string `json:"detail,omitempty"`
	}

	StatementEmailRequest struct {
		Email string `json:"email" validate:"omitempty,email"`
		From  string `json:"from" validate:"omitempty,isodate"`
		To    string `json:"to" validate:"omitempty,isodate"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func newRecordResponse(rec attendance.Record) RecordResponse {
	subjects := rec.Subjects()
	tallies := make([]SubjectTally, 0, len(subjects))
	for _, s := range subjects {
		t := rec.SubjectTotals[s]
		tallies = append(tallies, SubjectTally{
			Subject:    s,
			Present:    t.Present,
			Total:      t.Total,
			Percentage: attendance.Round1(attendance.Percentage(t.Present, t.Total)),
		})
	}
	overall := rec.Overall
	overall.Percentage = attendance.Round1(overall.Percentage)
	return RecordResponse{
		StudentRef: rec.StudentRef,
		Subjects:   tallies,
		Daily:      rec.Daily,
		Overall:    overall,
		Version:    rec.Version,
	}
}

func newVerifyResponse(ref string, err error) VerifyResponse {
	resp := VerifyResponse{StudentRef: strings.TrimSpace(ref), Consistent: err == nil}
	if fault, ok := errors.Cause(err).(*attendance.ConsistencyFault); ok {
		resp.Invariant = fault.Invariant
		resp.Subject = fault.Subject
		resp.Detail = fault.Detail
	}
	return resp
}

func (r *StatementEmailRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.ValidateStruct(validate, translator, r)
}

func (r StatementEmailRequest) Range() attendance.DateRange {
	return attendance.DateRange{From: r.From, To: r.To}
}
