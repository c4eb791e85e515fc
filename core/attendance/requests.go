package attendance

import "github.com/biru-ka2/Attendify-sub000/core"

var validate, translator = core.NewValidator()

type (
	MarkRequest struct {
		Subject string `json:"subject" validate:"required,subject"`
		Date    string `json:"date" validate:"required,isodate"`
	}

	SubjectRequest struct {
		Subject string `json:"subject" param:"subject" validate:"required,subject"`
	}

	// RangeQuery holds the optional date bounds of read endpoints.
	RangeQuery struct {
		From string `json:"from" query:"from" validate:"omitempty,isodate"`
		To   string `json:"to" query:"to" validate:"omitempty,isodate"`
	}
)

func (mr MarkRequest) Validate() error    { return validateStruct(mr) }
func (sr SubjectRequest) Validate() error { return validateStruct(sr) }
func (rq RangeQuery) Validate() error     { return validateStruct(rq) }

func (rq RangeQuery) Range() DateRange {
	return DateRange{From: rq.From, To: rq.To}
}

func validateStruct(s interface{}) error {
	return core.ValidateStruct(validate, translator, s)
}
