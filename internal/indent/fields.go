package indent

import (
	"strconv"
	"strings"
)

// FieldKind declares how a raw form value is typed on submission.
type FieldKind int

const (
	FieldText    FieldKind = iota // always a string
	FieldInteger                  // digits become a number
	FieldNumber                   // decimal quantity or rate
	FieldDate                     // YYYY-MM-DD string
	FieldEnum                     // fixed string choices
	FieldSelect                   // master option id, digits become a number
)

// FieldDef describes one input of a form.
type FieldDef struct {
	Key      string
	Label    string
	Kind     FieldKind
	Required bool
	Source   string   // Master set feeding a FieldSelect
	Options  []Option // Static choices for FieldEnum and FieldInteger
}

// Choices returns the options a user can pick for this field, nil for free text.
func (f FieldDef) Choices(masters *MasterData) []Option {
	if f.Source != "" {
		return masters.Set(f.Source)
	}
	return f.Options
}

// typed converts a raw value according to the field kind.
func (f FieldDef) typed(raw string) interface{} {
	switch f.Kind {
	case FieldInteger, FieldSelect:
		return CoerceDigits(raw)
	}
	return raw
}

// CoerceDigits turns a value made only of decimal digits into a number and
// leaves anything else as the original string.
func CoerceDigits(raw string) interface{} {
	if !isDigits(raw) {
		return raw
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FieldProblem is a single validation failure.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError is raised before any request is made.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	var missing, other []string
	for _, p := range e.Problems {
		if p.Message == "required" {
			missing = append(missing, p.Field)
		} else {
			other = append(other, p.Field+": "+p.Message)
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Please fill required fields: "+strings.Join(missing, ", "))
	}
	parts = append(parts, other...)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
