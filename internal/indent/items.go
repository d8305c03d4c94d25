package indent

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const insertItemsPath = "/api/insert-indent-items/"

// ErrNoItems is returned when bulk submission is asked for an empty list.
var ErrNoItems = errors.New("no items to submit")

// Item field keys
const (
	KeyIndentItemID       = "IndentItemID"
	KeyItemSpecifications = "ItemSpecifications"
	KeyUOM                = "UOM"
	KeyRequiredQty        = "RequiredQty"
	KeyStockQty           = "StockQty"
	KeyPurchaseQty        = "PurchaseQty"
	KeyLastPurchaseRate   = "LastPurchaseRate"
	KeyRemark             = "Remark"
)

// ItemFields is the item sub-form in display order.
var ItemFields = []FieldDef{
	{Key: KeyIndentItemID, Label: "Item", Kind: FieldSelect, Required: true, Source: SetIndentItems},
	{Key: KeyItemSpecifications, Label: "Specifications", Kind: FieldText},
	{Key: KeyUOM, Label: "UOM", Kind: FieldSelect, Required: true, Source: SetIndentUOM},
	{Key: KeyRequiredQty, Label: "Required Qty", Kind: FieldNumber, Required: true},
	{Key: KeyStockQty, Label: "Stock Qty", Kind: FieldNumber},
	{Key: KeyPurchaseQty, Label: "Purchase Qty", Kind: FieldNumber},
	{Key: KeyLastPurchaseRate, Label: "Last Purchase Rate", Kind: FieldNumber},
	{Key: KeyRemark, Label: "Remark", Kind: FieldText},
}

// ItemDraft holds the raw values of the line item being entered.
type ItemDraft struct {
	IndentItemID       string
	ItemSpecifications string
	UOM                string
	RequiredQty        string
	StockQty           string
	PurchaseQty        string
	LastPurchaseRate   string
	Remark             string
}

func (d *ItemDraft) field(key string) *string {
	switch key {
	case KeyIndentItemID:
		return &d.IndentItemID
	case KeyItemSpecifications:
		return &d.ItemSpecifications
	case KeyUOM:
		return &d.UOM
	case KeyRequiredQty:
		return &d.RequiredQty
	case KeyStockQty:
		return &d.StockQty
	case KeyPurchaseQty:
		return &d.PurchaseQty
	case KeyLastPurchaseRate:
		return &d.LastPurchaseRate
	case KeyRemark:
		return &d.Remark
	}
	return nil
}

// Get returns the raw value for key
func (d ItemDraft) Get(key string) string {
	if p := d.field(key); p != nil {
		return *p
	}
	return ""
}

// Set stores a raw value
func (d *ItemDraft) Set(key, value string) {
	if p := d.field(key); p != nil {
		*p = value
	}
}

// PendingRow is a line item staged locally until the bulk submit.
// ID, ItemName and UOMName are for display and removal only.
type PendingRow struct {
	ID                 string   `json:"-"`
	IndentID           IndentID `json:"indentid"`
	IndentItemID       string   `json:"indentitemid"`
	ItemSpecifications string   `json:"itemspecifications"`
	UOMID              string   `json:"uomid"`
	RequiredQty        float64  `json:"requiredqty"`
	StockQty           float64  `json:"stockqty"`
	PurchaseQty        float64  `json:"purchaseqty"`
	LastPurchaseRate   float64  `json:"lastpurchaserate"`
	Remark             string   `json:"remark"`
	InsertedDate       string   `json:"inserteddate"`
	IsFinalApproved    int      `json:"isfinalapproved"`
	PurchaseOrderNo    string   `json:"purchaseorderno"`
	ItemName           string   `json:"-"`
	UOMName            string   `json:"-"`
}

// RowBuilder turns drafts into pending rows for one indent header.
type RowBuilder struct {
	IndentID        IndentID
	PurchaseOrderNo string
	Now             func() time.Time
	NewID           func() string
}

// NewRowBuilder creates a builder stamping rows with the wall clock and uuids.
func NewRowBuilder(indentID IndentID, purchaseOrderNo string) RowBuilder {
	return RowBuilder{
		IndentID:        indentID,
		PurchaseOrderNo: purchaseOrderNo,
		Now:             time.Now,
		NewID:           uuid.NewString,
	}
}

// Build validates the draft and produces the row. Names are resolved from
// masters at this point and never refreshed.
func (b RowBuilder) Build(d ItemDraft, masters *MasterData) (PendingRow, error) {
	verr := &ValidationError{}
	for _, f := range ItemFields {
		if f.Required && strings.TrimSpace(d.Get(f.Key)) == "" {
			verr.add(f.Label, "required")
		}
	}
	if err := verr.orNil(); err != nil {
		return PendingRow{}, err
	}

	required, err := strconv.ParseFloat(strings.TrimSpace(d.RequiredQty), 64)
	if err != nil || required <= 0 {
		verr.add("Required Qty", "expected a positive number")
	}
	stock := optionalNumber(verr, "Stock Qty", d.StockQty)
	purchase := optionalNumber(verr, "Purchase Qty", d.PurchaseQty)
	rate := optionalNumber(verr, "Last Purchase Rate", d.LastPurchaseRate)
	if err := verr.orNil(); err != nil {
		return PendingRow{}, err
	}

	itemID := strings.TrimSpace(d.IndentItemID)
	uomID := strings.TrimSpace(d.UOM)

	return PendingRow{
		ID:                 b.NewID(),
		IndentID:           b.IndentID,
		IndentItemID:       itemID,
		ItemSpecifications: d.ItemSpecifications,
		UOMID:              uomID,
		RequiredQty:        required,
		StockQty:           stock,
		PurchaseQty:        purchase,
		LastPurchaseRate:   rate,
		Remark:             d.Remark,
		InsertedDate:       b.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		IsFinalApproved:    1,
		PurchaseOrderNo:    b.PurchaseOrderNo,
		ItemName:           NameOf(masters.Set(SetIndentItems), itemID),
		UOMName:            NameOf(masters.Set(SetIndentUOM), uomID),
	}, nil
}

func optionalNumber(verr *ValidationError, label, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n < 0 {
		verr.add(label, "expected a number of zero or more")
		return 0
	}
	return n
}

// PendingList is the ordered list of rows waiting for submission.
type PendingList struct {
	rows []PendingRow
}

// Add appends a row
func (l *PendingList) Add(row PendingRow) {
	l.rows = append(l.rows, row)
}

// Remove deletes the row with the given id, keeping the order of the rest.
func (l *PendingList) Remove(id string) bool {
	for i, r := range l.rows {
		if r.ID == id {
			l.rows = append(l.rows[:i:i], l.rows[i+1:]...)
			return true
		}
	}
	return false
}

// Rows returns a copy of the rows
func (l *PendingList) Rows() []PendingRow {
	out := make([]PendingRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of pending rows
func (l *PendingList) Len() int { return len(l.rows) }

// Clear empties the list
func (l *PendingList) Clear() { l.rows = nil }

// InsertItems posts all rows in one request.
func (c *Client) InsertItems(ctx context.Context, rows []PendingRow) error {
	if len(rows) == 0 {
		return ErrNoItems
	}
	_, err := c.Request(ctx, "POST", insertItemsPath, rows)
	return err
}
