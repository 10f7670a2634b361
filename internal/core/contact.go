package core

import (
	"encoding/json"
	"fmt"
	"math"
)

// ContactRecord is a validated name/phone pair taken from one input line.
type ContactRecord struct {
	Name       string
	Phone      string // digits only
	LineNumber int
}

// ValidationError is a line that failed structural or semantic checks.
type ValidationError struct {
	LineNumber int
	Message    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("linha %d: %s", e.LineNumber, e.Message)
}

// DispatchOutcome is the result of one attempted send.
type DispatchOutcome struct {
	LineNumber   int
	Success      bool
	ErrorMessage string
}

// LineError is one entry of a Report's error list.
type LineError struct {
	Line    int    `json:"linha"`
	Message string `json:"erro"`
}

// Report summarizes one dispatch request.
//
// Sent plus the number of delivery failures always equals Total, and every
// line number in Errors is unique.
type Report struct {
	ID             string      `json:"id,omitempty"`
	Success        bool        `json:"success"`
	Total          int         `json:"total"`
	Sent           int         `json:"enviados"`
	Errors         []LineError `json:"erros"`
	ElapsedSeconds float64     `json:"-"`
	Message        string      `json:"message,omitempty"`
}

// MarshalJSON writes the elapsed time as "tempo", rounded to one decimal.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	errs := r.Errors
	if errs == nil {
		errs = []LineError{}
	}
	out := struct {
		plain
		Errors []LineError `json:"erros"`
		Tempo  float64     `json:"tempo"`
	}{
		plain:  plain(r),
		Errors: errs,
		Tempo:  math.Round(r.ElapsedSeconds*10) / 10,
	}
	return json.Marshal(out)
}
