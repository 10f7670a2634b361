package core

import "time"

// MsgNoValidContacts is the Report message when nothing could be dispatched.
const MsgNoValidContacts = "nenhum contato válido no arquivo"

// Aggregate builds the Report for one request.
//
// Errors lists parse errors first, in line order, followed by delivery
// failures in attempt order. Total counts only contacts that reached the
// dispatcher; rejected lines are reported but not counted.
func Aggregate(parseErrors []ValidationError, result DispatchResult, validCount int, elapsed time.Duration) Report {
	failures := result.Failures()

	report := Report{
		Success:        validCount > 0,
		Total:          validCount,
		Sent:           result.Sent,
		Errors:         make([]LineError, 0, len(parseErrors)+len(failures)),
		ElapsedSeconds: elapsed.Seconds(),
	}

	for _, e := range parseErrors {
		report.Errors = append(report.Errors, LineError{Line: e.LineNumber, Message: e.Message})
	}
	for _, o := range failures {
		report.Errors = append(report.Errors, LineError{Line: o.LineNumber, Message: o.ErrorMessage})
	}

	if validCount == 0 {
		report.Sent = 0
		report.Message = MsgNoValidContacts
	}

	return report
}
