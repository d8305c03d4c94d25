package indent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const createIndentPath = "/api/indent-create/"

// ErrNoIndentID means the backend accepted the header but sent back no id.
var ErrNoIndentID = errors.New("indent created but response carried no id")

// Header field keys
const (
	KeyCompanyID       = "companyId"
	KeyIsLocalIndent   = "isLocalIndent"
	KeyIndentNo        = "indentNo"
	KeyIndentDate      = "indentDate"
	KeyDepartmentID    = "departmentId"
	KeyIndenterName    = "indenterName"
	KeyDeliveryTime    = "deliveryTime"
	KeyTransactionType = "transactionType"
	KeyProjectID       = "projectId"
	KeyPurpose         = "purpose"
	KeyPlantID         = "plantId"
	KeyCostCategoryID  = "costCategoryId"
	KeyCostCenterID    = "costCenterId"
)

const (
	MaxDeliveryDays = 30
	uiDateLayout    = "2006-01-02"
	apiDateLayout   = "02-01-2006"
)

// HeaderFields is the header form in display order.
var HeaderFields = []FieldDef{
	{Key: KeyCompanyID, Label: "Company", Kind: FieldSelect, Required: true, Source: SetCompanies},
	{Key: KeyIsLocalIndent, Label: "Local / Mumbai Indent", Kind: FieldEnum, Required: true, Options: []Option{
		{ID: "Local", Name: "Local"},
		{ID: "Mumbai", Name: "Mumbai"},
	}},
	{Key: KeyIndentNo, Label: "Indent No", Kind: FieldText, Required: true},
	{Key: KeyIndentDate, Label: "Indent Date (YYYY-MM-DD)", Kind: FieldDate, Required: true},
	{Key: KeyDepartmentID, Label: "Indenter Department", Kind: FieldSelect, Required: true, Source: SetDepartments},
	{Key: KeyIndenterName, Label: "Indenter Name", Kind: FieldText, Required: true},
	{Key: KeyDeliveryTime, Label: "Expected Delivery Time (Days)", Kind: FieldInteger, Required: true, Options: deliveryDayOptions()},
	{Key: KeyTransactionType, Label: "Classification of Transaction", Kind: FieldEnum, Required: true, Options: []Option{
		{ID: "Capital Expense", Name: "Capital Expense"},
		{ID: "Regular Expense", Name: "Regular Expense"},
	}},
	{Key: KeyProjectID, Label: "Project", Kind: FieldSelect, Source: SetProjects},
	{Key: KeyPurpose, Label: "Indent Purpose / Reason", Kind: FieldText},
	{Key: KeyPlantID, Label: "Department / Plant", Kind: FieldSelect, Source: SetPlants},
	{Key: KeyCostCategoryID, Label: "Cost Category", Kind: FieldSelect, Source: SetCostCategories},
	{Key: KeyCostCenterID, Label: "Cost Center", Kind: FieldSelect, Source: SetCostCenters},
}

func deliveryDayOptions() []Option {
	opts := make([]Option, MaxDeliveryDays)
	for i := range opts {
		n := strconv.Itoa(i + 1)
		opts[i] = Option{ID: OptionID(n), Name: n}
	}
	return opts
}

// HeaderField returns the definition for key.
func HeaderField(key string) (FieldDef, bool) {
	for _, f := range HeaderFields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDef{}, false
}

// HeaderDraft holds the raw header values as entered.
type HeaderDraft struct {
	CompanyID       string
	IsLocalIndent   string
	IndentNo        string
	IndentDate      string
	DepartmentID    string
	IndenterName    string
	DeliveryTime    string
	TransactionType string
	ProjectID       string
	Purpose         string
	PlantID         string
	CostCategoryID  string
	CostCenterID    string
}

func (d *HeaderDraft) field(key string) *string {
	switch key {
	case KeyCompanyID:
		return &d.CompanyID
	case KeyIsLocalIndent:
		return &d.IsLocalIndent
	case KeyIndentNo:
		return &d.IndentNo
	case KeyIndentDate:
		return &d.IndentDate
	case KeyDepartmentID:
		return &d.DepartmentID
	case KeyIndenterName:
		return &d.IndenterName
	case KeyDeliveryTime:
		return &d.DeliveryTime
	case KeyTransactionType:
		return &d.TransactionType
	case KeyProjectID:
		return &d.ProjectID
	case KeyPurpose:
		return &d.Purpose
	case KeyPlantID:
		return &d.PlantID
	case KeyCostCategoryID:
		return &d.CostCategoryID
	case KeyCostCenterID:
		return &d.CostCenterID
	}
	return nil
}

// Get returns the raw value for key, "" for unknown keys.
func (d HeaderDraft) Get(key string) string {
	if p := d.field(key); p != nil {
		return *p
	}
	return ""
}

// Set stores a raw value. Unknown keys are ignored.
func (d *HeaderDraft) Set(key, value string) {
	if p := d.field(key); p != nil {
		*p = value
	}
}

// Typed returns the value for key converted by its declared kind.
func (d HeaderDraft) Typed(key string) interface{} {
	f, ok := HeaderField(key)
	if !ok {
		return d.Get(key)
	}
	return f.typed(strings.TrimSpace(d.Get(key)))
}

// ResetAfterSubmit clears the fields that differ between consecutive indents.
func (d *HeaderDraft) ResetAfterSubmit() {
	d.IndentNo = ""
	d.Purpose = ""
}

// Validate checks required fields and the constraints of typed fields.
func (d HeaderDraft) Validate() error {
	verr := &ValidationError{}
	for _, f := range HeaderFields {
		v := strings.TrimSpace(d.Get(f.Key))
		if v == "" {
			if f.Required {
				verr.add(f.Label, "required")
			}
			continue
		}

		switch f.Kind {
		case FieldDate:
			if _, err := time.Parse(uiDateLayout, v); err != nil {
				verr.add(f.Label, "expected a date as YYYY-MM-DD")
			}
		case FieldInteger:
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > MaxDeliveryDays {
				verr.add(f.Label, fmt.Sprintf("expected a whole number from 1 to %d", MaxDeliveryDays))
			}
		case FieldEnum:
			if _, ok := FindOption(f.Options, v); !ok {
				verr.add(f.Label, "not one of the allowed values")
			}
		}
	}
	return verr.orNil()
}

// HeaderPayload is the body of POST /api/indent-create/.
type HeaderPayload struct {
	CCID                      interface{} `json:"cc_id"`
	IsLocalIndent             string      `json:"is_local_indent"`
	IndentNo                  interface{} `json:"indent_no"`
	IndentDate                string      `json:"indentdate"`
	DepartmentID              interface{} `json:"departmentid"`
	IndenterName              interface{} `json:"indentername"`
	LeadTime                  int         `json:"leadtime"`
	ClassificationTransaction string      `json:"classificationtransaction"`
	ProjectID                 interface{} `json:"projectid"`
	Purpose                   interface{} `json:"purpose"`
	PlantID                   interface{} `json:"plantid"`
	CostCategoryID            interface{} `json:"costcategory_id"`
	CostCenterID              interface{} `json:"costcenterid"`
	IsFMS                     int         `json:"isfms"`
}

// FormatIndentDate converts YYYY-MM-DD to the backend's DD-MM-YYYY.
func FormatIndentDate(s string) (string, error) {
	t, err := time.Parse(uiDateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid indent date %q: %w", s, err)
	}
	return t.Format(apiDateLayout), nil
}

// PayloadOption changes how BuildHeaderPayload types free-text values.
type PayloadOption func(*payloadSettings)

type payloadSettings struct {
	coerceAll bool
}

// CoerceAllDigits sends every all-digits text value as a number, whatever
// the field kind. Some backends expect indent_no as a number.
func CoerceAllDigits() PayloadOption {
	return func(s *payloadSettings) { s.coerceAll = true }
}

// BuildHeaderPayload validates the draft and maps it to the backend fields.
func BuildHeaderPayload(d HeaderDraft, opts ...PayloadOption) (HeaderPayload, error) {
	var settings payloadSettings
	for _, opt := range opts {
		opt(&settings)
	}
	text := func(raw string) interface{} {
		if settings.coerceAll {
			return CoerceDigits(raw)
		}
		return raw
	}

	if err := d.Validate(); err != nil {
		return HeaderPayload{}, err
	}

	date, err := FormatIndentDate(d.IndentDate)
	if err != nil {
		return HeaderPayload{}, err
	}
	leadTime, err := strconv.Atoi(strings.TrimSpace(d.DeliveryTime))
	if err != nil {
		return HeaderPayload{}, fmt.Errorf("invalid delivery time %q: %w", d.DeliveryTime, err)
	}

	return HeaderPayload{
		CCID:                      d.Typed(KeyCompanyID),
		IsLocalIndent:             strings.TrimSpace(d.IsLocalIndent),
		IndentNo:                  text(strings.TrimSpace(d.IndentNo)),
		IndentDate:                date,
		DepartmentID:              d.Typed(KeyDepartmentID),
		IndenterName:              text(strings.TrimSpace(d.IndenterName)),
		LeadTime:                  leadTime,
		ClassificationTransaction: strings.TrimSpace(d.TransactionType),
		ProjectID:                 d.Typed(KeyProjectID),
		Purpose:                   text(d.Purpose),
		PlantID:                   d.Typed(KeyPlantID),
		CostCategoryID:            d.Typed(KeyCostCategoryID),
		CostCenterID:              d.Typed(KeyCostCenterID),
		IsFMS:                     1,
	}, nil
}

// IndentID identifies a created header. It remembers whether the backend
// sent it as a JSON number or a string and is written back the same way.
type IndentID struct {
	value   string
	numeric bool
}

// NumericIndentID wraps an id the backend sent as a JSON number.
func NumericIndentID(n string) IndentID { return IndentID{value: n, numeric: true} }

// TextIndentID wraps an id the backend sent as a JSON string.
func TextIndentID(s string) IndentID { return IndentID{value: s} }

func (id IndentID) String() string { return id.value }

// IsZero reports whether no id is held.
func (id IndentID) IsZero() bool { return id.value == "" }

func (id IndentID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		if _, err := strconv.ParseFloat(id.value, 64); err == nil {
			return []byte(id.value), nil
		}
	}
	return json.Marshal(id.value)
}

// CreateIndent posts a header and returns the id the backend assigned.
func (c *Client) CreateIndent(ctx context.Context, payload HeaderPayload) (IndentID, error) {
	body, err := c.Request(ctx, "POST", createIndentPath, payload)
	if err != nil {
		return IndentID{}, err
	}

	var result map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return IndentID{}, fmt.Errorf("failed to parse response: %s", string(body))
	}

	id := extractIndentID(result)
	if id.IsZero() {
		return IndentID{}, ErrNoIndentID
	}
	return id, nil
}

// extractIndentID accepts id, indent_id or instance.id, in that order.
func extractIndentID(result map[string]interface{}) IndentID {
	if id := toIndentID(result["id"]); !id.IsZero() {
		return id
	}
	if id := toIndentID(result["indent_id"]); !id.IsZero() {
		return id
	}
	if inst, ok := result["instance"].(map[string]interface{}); ok {
		return toIndentID(inst["id"])
	}
	return IndentID{}
}

// toIndentID keeps the JSON type of v. Empty strings and zero are no id.
func toIndentID(v interface{}) IndentID {
	switch id := v.(type) {
	case string:
		return TextIndentID(id)
	case json.Number:
		if f, err := id.Float64(); err != nil || f == 0 {
			return IndentID{}
		}
		return NumericIndentID(id.String())
	}
	return IndentID{}
}
