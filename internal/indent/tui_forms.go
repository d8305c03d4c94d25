package indent

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formField is one input: free text backed by a textinput, or a choice
// cycled with left/right.
type formField struct {
	def     FieldDef
	input   textinput.Model
	choices []Option
	choice  int // -1 when nothing is selected
	focused bool
}

func newFormField(def FieldDef, masters *MasterData) formField {
	f := formField{def: def, choice: -1}
	if def.Kind == FieldSelect || def.Kind == FieldEnum || len(def.Options) > 0 {
		f.choices = def.Choices(masters)
		return f
	}

	f.input = textinput.New()
	f.input.CharLimit = 256
	f.input.Width = 40
	switch def.Kind {
	case FieldDate:
		f.input.Placeholder = "YYYY-MM-DD"
		f.input.CharLimit = 10
	case FieldNumber:
		f.input.Placeholder = "0"
		f.input.Validate = numericInput
	default:
		f.input.Placeholder = def.Label
	}
	return f
}

// numericInput keeps number fields to digits and a single decimal point.
func numericInput(s string) error {
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			return fmt.Errorf("not a number")
		}
	}
	return nil
}

func (f formField) isChoice() bool {
	return f.def.Kind == FieldSelect || f.def.Kind == FieldEnum || len(f.def.Options) > 0
}

// Value returns the raw value held by the field.
func (f formField) Value() string {
	if f.isChoice() {
		if f.choice < 0 || f.choice >= len(f.choices) {
			return ""
		}
		return string(f.choices[f.choice].ID)
	}
	return f.input.Value()
}

// SetValue selects the matching choice or replaces the text.
func (f *formField) SetValue(v string) {
	if !f.isChoice() {
		f.input.SetValue(v)
		return
	}
	f.choice = -1
	for i, o := range f.choices {
		if string(o.ID) == v {
			f.choice = i
			return
		}
	}
}

func (f *formField) focus() tea.Cmd {
	f.focused = true
	if f.isChoice() {
		return nil
	}
	return f.input.Focus()
}

func (f *formField) blur() {
	f.focused = false
	if !f.isChoice() {
		f.input.Blur()
	}
}

func (f formField) update(msg tea.Msg) (formField, tea.Cmd) {
	if !f.isChoice() {
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return f, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}
	// Positions run -1 (none) .. len-1 and wrap around.
	n := len(f.choices) + 1
	switch keyMsg.String() {
	case "right", " ", "l":
		f.choice = (f.choice+1+1)%n - 1
	case "left", "h":
		f.choice = (f.choice+1+n-1)%n - 1
	}
	return f, nil
}

func (f formField) view() string {
	if !f.isChoice() {
		return f.input.View()
	}

	label := fmt.Sprintf("--Select %s--", f.def.Label)
	if f.choice >= 0 && f.choice < len(f.choices) {
		label = f.choices[f.choice].Name
	}
	if f.focused {
		return selectedStyle.Render("‹ " + label + " ›")
	}
	return "  " + label
}

// fieldSet is an ordered group of fields with one focus position.
type fieldSet struct {
	fields []formField
	focus  int
}

func newFieldSet(defs []FieldDef, masters *MasterData) fieldSet {
	s := fieldSet{fields: make([]formField, len(defs))}
	for i, def := range defs {
		s.fields[i] = newFormField(def, masters)
	}
	return s
}

// updateFocus updates which input has focus
func (s *fieldSet) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range s.fields {
		if i == s.focus {
			cmd = s.fields[i].focus()
		} else {
			s.fields[i].blur()
		}
	}
	return cmd
}

func (s *fieldSet) blurAll() {
	for i := range s.fields {
		s.fields[i].blur()
	}
}

func (s *fieldSet) update(msg tea.Msg) tea.Cmd {
	if s.focus < 0 || s.focus >= len(s.fields) {
		return nil
	}
	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].update(msg)
	return cmd
}

func (s *fieldSet) set(key, value string) {
	for i := range s.fields {
		if s.fields[i].def.Key == key {
			s.fields[i].SetValue(value)
		}
	}
}

// values copies every field value through setter.
func (s fieldSet) values(setter func(key, value string)) {
	for _, f := range s.fields {
		setter(f.def.Key, f.Value())
	}
}

func (s fieldSet) render(b *strings.Builder) {
	for _, f := range s.fields {
		label := f.def.Label
		if f.def.Required {
			label += " *"
		}
		if f.focused {
			b.WriteString(fmt.Sprintf("  %s\n", selectedStyle.Render(label)))
		} else {
			b.WriteString(fmt.Sprintf("  %s\n", label))
		}
		b.WriteString(fmt.Sprintf("  %s\n\n", f.view()))
	}
}
