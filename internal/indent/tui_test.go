package indent

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/indent-cli/internal/mockapi"
)

type tuiHarness struct {
	t   *testing.T
	srv *mockapi.Server
	ts  *httptest.Server
	m   Model
}

func newHarness(t *testing.T, share bool) *tuiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := mockapi.NewServer()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	client := NewClient(&Config{
		APIURL:        ts.URL,
		Brand:         "Test Indents",
		ShareMasters:  share,
		POPlaceholder: DefaultPOPlaceholder,
	})
	h := &tuiHarness{t: t, srv: srv, ts: ts, m: NewTUI(client, RouteHome)}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 50})
	return h
}

// send feeds msg to the model and returns the command it produced.
func (h *tuiHarness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	m, ok := next.(Model)
	require.True(h.t, ok)
	h.m = m
	return cmd
}

// run executes cmd and feeds its message back, the way the program loop would.
func (h *tuiHarness) run(cmd tea.Cmd) tea.Cmd {
	h.t.Helper()
	require.NotNil(h.t, cmd)
	return h.send(cmd())
}

func (h *tuiHarness) key(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func (h *tuiHarness) dismiss() {
	h.t.Helper()
	require.True(h.t, h.m.showNotice)
	h.key(tea.KeyEnter)
	require.False(h.t, h.m.showNotice)
}

// openForm goes from the landing page to a loaded header form.
func (h *tuiHarness) openForm() {
	h.t.Helper()
	cmd := h.key(tea.KeyEnter)
	require.Equal(h.t, RouteForm, h.m.route)
	require.Equal(h.t, HeaderLoading, h.m.header.state)
	h.run(cmd)
	require.Equal(h.t, HeaderReady, h.m.header.state)
}

func (h *tuiHarness) fillHeader() {
	values := map[string]string{
		KeyCompanyID:       "1",
		KeyIsLocalIndent:   "Local",
		KeyIndentNo:        "123",
		KeyIndentDate:      "2024-05-01",
		KeyDepartmentID:    "3",
		KeyIndenterName:    "R. Rao",
		KeyDeliveryTime:    "5",
		KeyTransactionType: "Regular Expense",
		KeyPurpose:         "Spares",
	}
	for k, v := range values {
		h.m.header.fields.set(k, v)
	}
	h.m.header.syncDraft()
}

// submitHeader submits the filled header and loads the item sub-form.
func (h *tuiHarness) submitHeader() {
	h.t.Helper()
	h.fillHeader()
	loadItems := h.run(h.key(tea.KeyEnter))
	require.NotNil(h.t, h.m.items)
	h.run(loadItems)
	require.Equal(h.t, ItemsReady, h.m.items.state)
	h.dismiss()
}

func (h *tuiHarness) addBolt(qty string) {
	h.t.Helper()
	it := h.m.items
	it.fields.set(KeyIndentItemID, "7")
	it.fields.set(KeyUOM, "2")
	it.fields.set(KeyRequiredQty, qty)
	it.syncDraft()
	h.key(tea.KeyEnter)
}

func TestStartOnFormRoute(t *testing.T) {
	client := NewClient(&Config{APIURL: "http://127.0.0.1:1", Brand: "X"})
	m := NewTUI(client, RouteForm)
	assert.Equal(t, RouteForm, m.route)
	require.NotNil(t, m.header)
	assert.NotNil(t, m.initCmd)
}

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute("/form")
	require.NoError(t, err)
	assert.Equal(t, RouteForm, r)

	_, err = ParseRoute("/reports")
	assert.Error(t, err)
}

func TestMasterFetchFailureShowsOnlyError(t *testing.T) {
	h := newHarness(t, false)
	h.srv.Fail("/api/master-dropdowns/", http.StatusInternalServerError)

	h.run(h.key(tea.KeyEnter))
	assert.Equal(t, HeaderLoadFailed, h.m.header.state)

	view := h.m.View()
	assert.Contains(t, view, "Error:")
	assert.Contains(t, view, "HTTP 500")
	assert.NotContains(t, view, "Indenter Name")
	assert.NotContains(t, view, "Items List")
}

func TestHeaderFormRendersMasters(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()

	view := h.m.View()
	assert.Contains(t, view, "Company *")
	assert.Contains(t, view, "Indenter Name *")
	assert.Contains(t, view, "--Select Company--")
	assert.NotContains(t, view, "Items List")
}

func TestInvalidHeaderSendsNothing(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()

	cmd := h.key(tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.True(t, h.m.showNotice)
	assert.Contains(t, h.m.notice, "Please fill required fields")
	assert.Empty(t, h.srv.Headers())
}

func TestHeaderSubmitRevealsItems(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.submitHeader()

	headers := h.srv.Headers()
	require.Len(t, headers, 1)
	assert.Equal(t, "01-05-2024", headers[0].Fields["indentdate"])
	assert.Equal(t, float64(1), headers[0].Fields["cc_id"])

	assert.Equal(t, NumericIndentID("1"), h.m.items.builder.IndentID)
	assert.Equal(t, paneItems, h.m.pane)
	assert.Empty(t, h.m.header.draft.IndentNo)
	assert.Empty(t, h.m.header.draft.Purpose)
	assert.Equal(t, "1", h.m.header.draft.CompanyID)
	assert.Contains(t, h.m.View(), "Items List")
	assert.Contains(t, h.m.View(), "No items added.")
}

func TestHeaderSubmitAltShapes(t *testing.T) {
	for _, shape := range []mockapi.IDShape{mockapi.ShapeIndentID, mockapi.ShapeInstance} {
		t.Run(fmt.Sprint(shape), func(t *testing.T) {
			h := newHarness(t, false)
			h.srv.SetIDShape(shape)
			h.openForm()
			h.submitHeader()
			assert.Equal(t, NumericIndentID("1"), h.m.items.builder.IndentID)
		})
	}
}

func TestHeaderSubmitWithoutIDKeepsItemsHidden(t *testing.T) {
	h := newHarness(t, false)
	h.srv.SetIDShape(mockapi.ShapeNone)
	h.openForm()
	h.fillHeader()

	cmd := h.run(h.key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Nil(t, h.m.items)
	assert.Contains(t, h.m.notice, "no indent id")
	assert.NotContains(t, h.m.View(), "Items List")
}

func TestHeaderSubmitFailureKeepsDraft(t *testing.T) {
	h := newHarness(t, false)
	h.srv.Fail("/api/indent-create/", http.StatusBadRequest)
	h.openForm()
	h.fillHeader()
	before := h.m.header.draft

	h.run(h.key(tea.KeyEnter))
	assert.Nil(t, h.m.items)
	assert.Equal(t, before, h.m.header.draft)
	assert.Equal(t, HeaderReady, h.m.header.state)
	assert.Contains(t, h.m.notice, "Submit failed")
}

func TestHeaderSubmitCoerceAllDigits(t *testing.T) {
	h := newHarness(t, false)
	h.m.client.Config.CoerceAllDigits = true
	h.openForm()
	h.submitHeader()

	headers := h.srv.Headers()
	require.Len(t, headers, 1)
	assert.Equal(t, float64(123), headers[0].Fields["indent_no"])
	assert.Equal(t, "R. Rao", headers[0].Fields["indentername"])
}

func TestHeaderSubmitServerUnreachable(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.fillHeader()
	before := h.m.header.draft

	h.ts.Close()
	h.run(h.key(tea.KeyEnter))
	assert.Nil(t, h.m.items)
	assert.Equal(t, before, h.m.header.draft)
	assert.Equal(t, HeaderReady, h.m.header.state)
	assert.Contains(t, h.m.notice, "Submit failed")
}

func TestAddItemValidation(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.submitHeader()

	h.addBolt("")
	assert.Equal(t, 0, h.m.items.pending.Len())
	assert.Contains(t, h.m.notice, "Required Qty")
	h.dismiss()

	h.addBolt("4")
	assert.Equal(t, 1, h.m.items.pending.Len())
	assert.False(t, h.m.showNotice)
	assert.Empty(t, h.m.items.draft.IndentItemID, "draft cleared after add")
	assert.Contains(t, h.m.View(), "Bolt M8")
}

func TestDeletePendingRow(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.submitHeader()
	h.addBolt("1")
	h.addBolt("2")
	second := h.m.items.pending.Rows()[1].ID

	// Focus the pending list, cursor on the first row
	h.key(tea.KeyShiftTab)
	require.True(t, h.m.items.listFocused())
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})

	rows := h.m.items.pending.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, second, rows[0].ID)
	assert.Equal(t, 2.0, rows[0].RequiredQty)
}

func TestBulkSubmit(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.submitHeader()

	assert.Nil(t, h.key(tea.KeyCtrlS))
	assert.Contains(t, h.m.notice, "No items to submit")
	h.dismiss()

	h.addBolt("3")
	h.addBolt("5")

	h.srv.Fail("/api/insert-indent-items/", http.StatusInternalServerError)
	h.run(h.key(tea.KeyCtrlS))
	assert.Equal(t, 2, h.m.items.pending.Len(), "list kept on failure")
	assert.Contains(t, h.m.notice, "Submission failed")
	h.dismiss()

	h.srv.Fail("/api/insert-indent-items/", 0)
	h.run(h.key(tea.KeyCtrlS))
	assert.Equal(t, 0, h.m.items.pending.Len())
	assert.Equal(t, "Items submitted successfully!", h.m.notice)

	items := h.srv.Items()
	require.Len(t, items, 2)
	assert.Equal(t, float64(1), items[0]["indentid"])
	assert.Equal(t, "7", items[0]["indentitemid"])
	assert.Equal(t, float64(5), items[1]["requiredqty"])
}

func TestStaleMastersAfterLeaving(t *testing.T) {
	h := newHarness(t, false)
	cmd := h.key(tea.KeyEnter)
	h.key(tea.KeyEsc)
	require.Equal(t, RouteHome, h.m.route)

	h.run(cmd)
	assert.Nil(t, h.m.header)
	assert.Equal(t, RouteHome, h.m.route)
}

func TestStaleMastersForRemountedForm(t *testing.T) {
	h := newHarness(t, false)
	h.key(tea.KeyEnter)
	h.key(tea.KeyEsc)
	second := h.key(tea.KeyEnter)

	h.send(mastersLoadedMsg{target: targetHeader, seq: h.m.header.seq - 1, data: &MasterData{}})
	assert.Equal(t, HeaderLoading, h.m.header.state)

	h.run(second)
	assert.Equal(t, HeaderReady, h.m.header.state)
}

func TestSharedMastersReleasedOnLeave(t *testing.T) {
	h := newHarness(t, true)
	require.NotNil(t, h.m.cache)

	h.openForm()
	assert.Equal(t, 1, h.m.cache.Refs())
	h.submitHeader()
	assert.Equal(t, 2, h.m.cache.Refs())

	h.key(tea.KeyEsc)
	assert.Equal(t, 0, h.m.cache.Refs())
}

func TestSharedStaleResultReleasesReference(t *testing.T) {
	h := newHarness(t, true)
	h.key(tea.KeyEnter)
	h.key(tea.KeyEsc)

	// A fetch that completed after the form was closed still holds a reference
	_, err := h.m.cache.Acquire(t.Context())
	require.NoError(t, err)
	h.send(mastersLoadedMsg{target: targetHeader, seq: 1, data: &MasterData{}, shared: true})
	assert.Equal(t, 0, h.m.cache.Refs())
}

func TestNoticeIsModal(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.key(tea.KeyEnter)
	require.True(t, h.m.showNotice)

	h.key(tea.KeyEsc)
	assert.False(t, h.m.showNotice)
	assert.Equal(t, RouteForm, h.m.route, "esc only dismissed the notice")
}

func TestBulkSubmitServerUnreachable(t *testing.T) {
	h := newHarness(t, false)
	h.openForm()
	h.submitHeader()
	h.addBolt("3")
	h.addBolt("5")
	before := h.m.items.pending.Rows()

	h.ts.Close()
	h.run(h.key(tea.KeyCtrlS))

	assert.Equal(t, ItemsReady, h.m.items.state)
	assert.Equal(t, before, h.m.items.pending.Rows(), "list kept when the request never arrives")
	assert.Contains(t, h.m.notice, "Submission failed")
	assert.Contains(t, h.m.notice, "request failed")
	assert.Empty(t, h.srv.Items())
}
