package indent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// HeaderState is the lifecycle of the header form
type HeaderState int

const (
	HeaderLoading HeaderState = iota
	HeaderLoadFailed
	HeaderReady
	HeaderSubmitting
)

type headerForm struct {
	state     HeaderState
	seq       int
	cancel    context.CancelFunc
	shared    bool
	masters   *MasterData
	loadErr   error
	draft     HeaderDraft
	fields    fieldSet
	createdID IndentID
}

func newHeaderForm(seq int, cancel context.CancelFunc) *headerForm {
	return &headerForm{state: HeaderLoading, seq: seq, cancel: cancel}
}

func (h *headerForm) loaded(data *MasterData, err error, shared bool) {
	h.shared = shared
	if err != nil {
		h.state = HeaderLoadFailed
		h.loadErr = err
		return
	}
	if data == nil {
		data = &MasterData{}
	}
	h.masters = data
	h.fields = newFieldSet(HeaderFields, data)
	h.state = HeaderReady
}

// syncDraft copies the field values into the draft after every change.
func (h *headerForm) syncDraft() {
	h.fields.values(h.draft.Set)
}

func (m Model) updateHeader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h := m.header
	if h == nil || h.state != HeaderReady {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		h.fields.focus++
		if h.fields.focus >= len(h.fields.fields) {
			h.fields.focus = 0
		}
		return m, h.fields.updateFocus()

	case "shift+tab", "up":
		h.fields.focus--
		if h.fields.focus < 0 {
			h.fields.focus = len(h.fields.fields) - 1
		}
		return m, h.fields.updateFocus()

	case "enter":
		return m, m.submitHeader()
	}

	cmd := h.fields.update(msg)
	h.syncDraft()
	return m, cmd
}

// submitHeader validates locally and posts the header. The request is not
// cancellable once issued.
func (m *Model) submitHeader() tea.Cmd {
	h := m.header
	var opts []PayloadOption
	if m.client.Config.CoerceAllDigits {
		opts = append(opts, CoerceAllDigits())
	}
	payload, err := BuildHeaderPayload(h.draft, opts...)
	if err != nil {
		m.notify("error", err.Error())
		return nil
	}

	h.state = HeaderSubmitting
	client, seq := m.client, h.seq
	return func() tea.Msg {
		id, err := client.CreateIndent(context.Background(), payload)
		return headerSubmittedMsg{seq: seq, id: id, err: err}
	}
}

func (m Model) handleHeaderSubmitted(msg headerSubmittedMsg) (tea.Model, tea.Cmd) {
	h := m.header
	if h == nil || h.seq != msg.seq {
		log.Printf("indent header response arrived after the form was closed: id=%q err=%v", msg.id, msg.err)
		return m, nil
	}
	h.state = HeaderReady

	switch {
	case msg.err == nil:
		h.createdID = msg.id
		h.draft.ResetAfterSubmit()
		h.fields.set(KeyIndentNo, "")
		h.fields.set(KeyPurpose, "")
		m.notify("success", "Indent submitted successfully!")

		if m.items == nil {
			return m, m.mountItems(msg.id)
		}
		// Rows already staged keep the indent they were added for.
		m.items.builder.IndentID = msg.id
		return m, nil

	case errors.Is(msg.err, ErrNoIndentID):
		log.Printf("Submit warning: %v", msg.err)
		h.draft.ResetAfterSubmit()
		h.fields.set(KeyIndentNo, "")
		h.fields.set(KeyPurpose, "")
		m.notify("error", "Indent submitted, but the server returned no indent id. Items cannot be added.")
		return m, nil
	}

	log.Printf("Submit error: %v", msg.err)
	m.notify("error", fmt.Sprintf("Submit failed: %v", msg.err))
	return m, nil
}

func (m Model) renderHeader() string {
	h := m.header
	switch h.state {
	case HeaderLoading:
		return fmt.Sprintf("\n  %s Loading dropdowns…", m.spinner.View())
	case HeaderLoadFailed:
		return "\n  " + errorStyle.Render("Error: "+h.loadErr.Error())
	}

	var b strings.Builder
	h.fields.render(&b)

	if h.state == HeaderSubmitting {
		b.WriteString(fmt.Sprintf("  %s Submitting…", m.spinner.View()))
	} else {
		b.WriteString(helpStyle.Render("  [enter] Submit"))
	}
	if !h.createdID.IsZero() {
		b.WriteString("\n" + helpStyle.Render(fmt.Sprintf("  Last created indent: %s", h.createdID)))
	}

	return boxStyle.Render(b.String())
}
