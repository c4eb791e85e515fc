package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
)

const (
	fromParam    = "from"
	toParam      = "to"
	subjectParam = "subject"
)

// bindRange reads the optional ?from=&to= bounds and validates them.
func bindRange(ctx echo.Context) (attendance.DateRange, error) {
	rq := attendance.RangeQuery{
		From: strings.TrimSpace(ctx.QueryParam(fromParam)),
		To:   strings.TrimSpace(ctx.QueryParam(toParam)),
	}
	if err := rq.Validate(); err != nil {
		return attendance.DateRange{}, err
	}
	return rq.Range(), nil
}

// bindSubjects reads repeated or comma separated ?subject= filters. No filter means nil (every subject).
func bindSubjects(ctx echo.Context) []string {
	vals, ok := ctx.QueryParams()[subjectParam]
	if !ok {
		return nil
	}
	subjects := make([]string, 0, len(vals))
	for _, val := range vals {
		for _, s := range strings.Split(val, ",") {
			if s = attendance.NormalizeSubject(s); s != "" {
				subjects = append(subjects, s)
			}
		}
	}
	if len(subjects) == 0 {
		return nil
	}
	return subjects
}

// bindInt reads a positive integer query param no greater than max, or def when it is absent.
func bindInt(ctx echo.Context, name string, def, max int) (int, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 || n > max {
		msg := "must be a whole number between 1 and " + strconv.Itoa(max)
		return 0, core.NewValidationError(errors.New(msg), core.FieldError{Field: name, Error: name + " " + msg})
	}
	return n, nil
}

// bindBool reads a boolean query param; anything unparsable is false.
func bindBool(ctx echo.Context, name string) bool {
	b, _ := strconv.ParseBool(ctx.QueryParam(name))
	return b
}
