package attendance

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// keySep separates subject & date in the text form of a DailyKey.
// Subject names may not contain it (see the "subject" validator); dates never do.
const keySep = "|"

// DailyKey is the composite (subject, date) key of the daily log.
type DailyKey struct {
	Subject string
	Date    string
}

func (k DailyKey) String() string {
	return k.Subject + keySep + k.Date
}

func (k DailyKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DailyKey) UnmarshalText(text []byte) error {
	s := string(text)
	i := strings.LastIndex(s, keySep)
	if i < 0 {
		return errors.Errorf("invalid daily key %q", s)
	}
	k.Subject, k.Date = s[:i], s[i+1:]
	return nil
}

// Log is the sparse daily log. A missing key means "no record", which is not the same as StatusAbsent.
type Log map[DailyKey]Status

type Tally struct {
	Present int `json:"present"`
	Total   int `json:"total"`
}

type Overall struct {
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"` // full precision; use Round1 for display
}

// Record is one student's attendance ledger.
// SubjectTotals & Overall are a cache of Daily and must only be changed through the ledger mutators.
type Record struct {
	StudentRef    string           `json:"student_ref"`
	Daily         Log              `json:"daily"`
	SubjectTotals map[string]Tally `json:"subject_totals"`
	SubjectOrder  []string         `json:"subject_order"`
	Overall       Overall          `json:"overall"`

	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`  // UTC
	UpdatedAt  time.Time `json:"updated_at"`  // UTC
	VerifiedAt time.Time `json:"verified_at"` // UTC; zero until first repair
}

// Document is the persisted body of a Record; the metadata fields are stored alongside it.
type Document struct {
	Daily         Log              `json:"daily"`
	SubjectTotals map[string]Tally `json:"subject_totals"`
	SubjectOrder  []string         `json:"subject_order"`
	Overall       Overall          `json:"overall"`
}

func (rec Record) Document() Document {
	return Document{
		Daily:         rec.Daily,
		SubjectTotals: rec.SubjectTotals,
		SubjectOrder:  rec.SubjectOrder,
		Overall:       rec.Overall,
	}
}

// SetDocument replaces the ledger body of rec, allocating any map the document left out.
func (rec *Record) SetDocument(doc Document) {
	rec.Daily = doc.Daily
	if rec.Daily == nil {
		rec.Daily = make(Log)
	}
	rec.SubjectTotals = doc.SubjectTotals
	if rec.SubjectTotals == nil {
		rec.SubjectTotals = make(map[string]Tally)
	}
	rec.SubjectOrder = doc.SubjectOrder
	if rec.SubjectOrder == nil {
		rec.SubjectOrder = []string{}
	}
	rec.Overall = doc.Overall
}

// NewRecord returns an empty ledger for ref.
func NewRecord(ref string, now time.Time) Record {
	return Record{
		StudentRef:    ref,
		Daily:         make(Log),
		SubjectTotals: make(map[string]Tally),
		SubjectOrder:  []string{},
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

// Clone returns a deep copy, so that snapshots handed to readers never alias the ledger's maps.
func (rec Record) Clone() Record {
	c := rec
	c.Daily = make(Log, len(rec.Daily))
	for k, v := range rec.Daily {
		c.Daily[k] = v
	}
	c.SubjectTotals = make(map[string]Tally, len(rec.SubjectTotals))
	for k, v := range rec.SubjectTotals {
		c.SubjectTotals[k] = v
	}
	c.SubjectOrder = append(make([]string, 0, len(rec.SubjectOrder)), rec.SubjectOrder...)
	return c
}

// Subjects returns the subject names in insertion order.
// Subjects missing from SubjectOrder (e.g. loaded from an older document) follow, sorted by name.
func (rec Record) Subjects() []string {
	subjects := make([]string, 0, len(rec.SubjectTotals))
	seen := make(map[string]bool, len(rec.SubjectTotals))
	for _, s := range rec.SubjectOrder {
		if _, ok := rec.SubjectTotals[s]; ok && !seen[s] {
			subjects = append(subjects, s)
			seen[s] = true
		}
	}
	var rest []string
	for s := range rec.SubjectTotals {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(subjects, rest...)
}

// HasSubject reports whether subject has an aggregate entry.
func (rec Record) HasSubject(subject string) bool {
	_, ok := rec.SubjectTotals[subject]
	return ok
}

// Status returns the logged status for (subject, date) and whether there is one.
func (rec Record) Status(subject, date string) (Status, bool) {
	st, ok := rec.Daily[DailyKey{Subject: subject, Date: date}]
	return st, ok
}
