package indent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ItemState is the lifecycle of the item sub-form
type ItemState int

const (
	ItemsLoading ItemState = iota
	ItemsLoadFailed
	ItemsReady
	ItemsSubmitting
)

type itemForm struct {
	state   ItemState
	seq     int
	cancel  context.CancelFunc
	shared  bool
	masters *MasterData
	loadErr error
	builder RowBuilder
	draft   ItemDraft
	fields  fieldSet
	pending PendingList
	table   table.Model
	// focus == len(fields.fields) means the pending list has focus
}

func newItemForm(seq int, cancel context.CancelFunc, builder RowBuilder) *itemForm {
	return &itemForm{state: ItemsLoading, seq: seq, cancel: cancel, builder: builder}
}

func (it *itemForm) loaded(data *MasterData, err error, shared bool, width int) {
	it.shared = shared
	if err != nil {
		it.state = ItemsLoadFailed
		it.loadErr = err
		return
	}
	if data == nil {
		data = &MasterData{}
	}
	it.masters = data
	it.fields = newFieldSet(ItemFields, data)
	it.table = newPendingTable()
	it.resize(width)
	it.state = ItemsReady
}

func newPendingTable() table.Model {
	columns := []table.Column{
		{Title: "Item", Width: 18},
		{Title: "Spec", Width: 14},
		{Title: "UOM", Width: 8},
		{Title: "Qty", Width: 8},
		{Title: "Stock", Width: 8},
		{Title: "Purchase", Width: 8},
		{Title: "Rate", Width: 8},
		{Title: "Remark", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(6),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(s)
	t.Blur()
	return t
}

func (it *itemForm) resize(width int) {
	if it.state == ItemsLoading || it.state == ItemsLoadFailed || width <= 0 {
		return
	}
	it.table.SetWidth(width - 8)
}

func (it *itemForm) listFocused() bool {
	return it.fields.focus == len(it.fields.fields)
}

func (it *itemForm) focusCurrent() tea.Cmd {
	if it.state != ItemsReady && it.state != ItemsSubmitting {
		return nil
	}
	if it.listFocused() {
		it.fields.blurAll()
		it.table.Focus()
		return nil
	}
	it.table.Blur()
	return it.fields.updateFocus()
}

func (it *itemForm) blurAll() {
	it.fields.blurAll()
	it.table.Blur()
}

func (it *itemForm) syncDraft() {
	it.fields.values(it.draft.Set)
}

// refreshTable rebuilds the table rows from the pending list.
func (it *itemForm) refreshTable() {
	rows := it.pending.Rows()
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row{
			r.ItemName,
			r.ItemSpecifications,
			r.UOMName,
			formatQty(r.RequiredQty),
			formatQty(r.StockQty),
			formatQty(r.PurchaseQty),
			formatQty(r.LastPurchaseRate),
			r.Remark,
		}
	}
	it.table.SetRows(out)
	if c := it.table.Cursor(); c >= len(out) && len(out) > 0 {
		it.table.SetCursor(len(out) - 1)
	}
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (m Model) updateItems(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it := m.items
	if it.state != ItemsReady {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		it.fields.focus++
		if it.fields.focus > len(it.fields.fields) {
			it.fields.focus = 0
		}
		return m, it.focusCurrent()

	case "shift+tab":
		it.fields.focus--
		if it.fields.focus < 0 {
			it.fields.focus = len(it.fields.fields)
		}
		return m, it.focusCurrent()

	case "ctrl+s":
		return m, m.submitItems()
	}

	if it.listFocused() {
		switch msg.String() {
		case "d", "delete", "backspace":
			rows := it.pending.Rows()
			if c := it.table.Cursor(); c >= 0 && c < len(rows) {
				it.pending.Remove(rows[c].ID)
				it.refreshTable()
			}
			return m, nil
		}
		var cmd tea.Cmd
		it.table, cmd = it.table.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "down":
		it.fields.focus++
		if it.fields.focus > len(it.fields.fields) {
			it.fields.focus = 0
		}
		return m, it.focusCurrent()
	case "up":
		it.fields.focus--
		if it.fields.focus < 0 {
			it.fields.focus = len(it.fields.fields)
		}
		return m, it.focusCurrent()
	case "enter":
		m.addItem()
		return m, nil
	}

	cmd := it.fields.update(msg)
	it.syncDraft()
	return m, cmd
}

// addItem stages the current draft. An invalid draft leaves the list as it was.
func (m *Model) addItem() {
	it := m.items
	row, err := it.builder.Build(it.draft, it.masters)
	if err != nil {
		m.notify("error", err.Error())
		return
	}

	it.pending.Add(row)
	it.draft = ItemDraft{}
	for _, f := range ItemFields {
		it.fields.set(f.Key, "")
	}
	it.refreshTable()
}

// submitItems posts every pending row in one request. The list is only
// cleared once the backend accepts it.
func (m *Model) submitItems() tea.Cmd {
	it := m.items
	if it.pending.Len() == 0 {
		m.notify("error", "No items to submit")
		return nil
	}

	it.state = ItemsSubmitting
	client, seq, rows := m.client, it.seq, it.pending.Rows()
	return func() tea.Msg {
		err := client.InsertItems(context.Background(), rows)
		return itemsSubmittedMsg{seq: seq, count: len(rows), err: err}
	}
}

func (m Model) handleItemsSubmitted(msg itemsSubmittedMsg) (tea.Model, tea.Cmd) {
	it := m.items
	if it == nil || it.seq != msg.seq {
		log.Printf("indent items response arrived after the form was closed: rows=%d err=%v", msg.count, msg.err)
		return m, nil
	}
	it.state = ItemsReady

	if msg.err != nil {
		log.Printf("Item submit error: %v", msg.err)
		if errors.Is(msg.err, ErrNoItems) {
			m.notify("error", "No items to submit")
		} else {
			m.notify("error", fmt.Sprintf("Submission failed: %v", msg.err))
		}
		return m, nil
	}

	it.pending.Clear()
	it.refreshTable()
	m.notify("success", "Items submitted successfully!")
	return m, nil
}

func (m Model) renderItems() string {
	it := m.items
	switch it.state {
	case ItemsLoading:
		return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
	case ItemsLoadFailed:
		return "\n  " + errorStyle.Render("Error: "+it.loadErr.Error())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" Items for Indent %s ", it.builder.IndentID)) + "\n\n")
	it.fields.render(&b)
	b.WriteString(helpStyle.Render("  [enter] Add Item") + "\n\n")

	b.WriteString("  " + selectedStyle.Render("Items List") + "\n")
	if it.pending.Len() == 0 {
		b.WriteString("  No items added.\n")
	} else {
		b.WriteString(it.table.View() + "\n\n")
		if it.state == ItemsSubmitting {
			b.WriteString(fmt.Sprintf("  %s Submitting…", m.spinner.View()))
		} else {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  [ctrl+s] Submit All Items (%d)", it.pending.Len())))
		}
	}

	return boxStyle.Render(b.String())
}
