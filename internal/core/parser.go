package core

// parser.go turns uploaded contact text into records and per-line errors.
//
// The format is deliberately small: one "name,phone" pair per line, no
// header row and no CSV quoting. Quote characters are stripped rather than
// interpreted, so a field cannot contain a literal comma.

import (
	"regexp"
	"strings"
)

// Validation messages reported in a Report's error list.
const (
	MsgFieldCount   = "deve conter nome e número separados por vírgula"
	MsgEmptyName    = "nome vazio"
	MsgInvalidPhone = "número inválido (deve conter 12 a 15 dígitos)"
)

// phoneRegex matches a full international number without punctuation,
// country code included (e.g. 5511999999999).
var phoneRegex = regexp.MustCompile(`^[0-9]{12,15}$`)

// quoteChars are stripped wherever they appear. There is no escaping, so
// an apostrophe inside a name is removed too.
const quoteChars = `"'`

// Parse splits raw into contact records and validation errors.
//
// Lines are separated by "\n" or "\r\n". Lines that are blank after
// trimming are skipped without an error and do not consume a line number.
// Both outputs are ordered by line number.
func Parse(raw string) ([]ContactRecord, []ValidationError) {
	var (
		contacts []ContactRecord
		errs     []ValidationError
	)

	lineNo := 0
	for _, line := range splitLines(raw) {
		line = stripEnclosingQuotes(strings.TrimSpace(line))
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo++

		rec, msg := parseLine(line)
		if msg != "" {
			errs = append(errs, ValidationError{LineNumber: lineNo, Message: msg})
			continue
		}
		rec.LineNumber = lineNo
		contacts = append(contacts, rec)
	}

	return contacts, errs
}

// parseLine validates a single non-blank line. It returns a non-empty
// message when the line is rejected.
func parseLine(line string) (ContactRecord, string) {
	fields := strings.Split(stripQuotes(line), ",")
	if len(fields) != 2 {
		return ContactRecord{}, MsgFieldCount
	}

	name := strings.TrimSpace(fields[0])
	phone := strings.TrimSpace(fields[1])

	if name == "" {
		return ContactRecord{}, MsgEmptyName
	}
	if !phoneRegex.MatchString(phone) {
		return ContactRecord{}, MsgInvalidPhone
	}

	return ContactRecord{Name: name, Phone: phone}, ""
}

func stripQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}
		return r
	}, s)
}

func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// stripEnclosingQuotes removes one pair of matching quotes wrapping the
// whole line, as produced by spreadsheet exports that quote each row.
func stripEnclosingQuotes(line string) string {
	if len(line) >= 2 {
		first, last := line[0], line[len(line)-1]
		if first == last && strings.IndexByte(quoteChars, first) >= 0 {
			return line[1 : len(line)-1]
		}
	}
	return line
}
