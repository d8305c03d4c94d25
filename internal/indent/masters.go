package indent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

const mastersPath = "/api/master-dropdowns/"

// OptionID is a master record id. The backend sends numbers for most sets
// but strings are accepted too; both are kept in their text form.
type OptionID string

func (id *OptionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = OptionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("option id: %w", err)
	}
	*id = OptionID(n.String())
	return nil
}

// Option is one entry of a dropdown set
type Option struct {
	ID   OptionID `json:"id"`
	Name string   `json:"name"`
}

// MasterData is the dropdown document served by the backend.
type MasterData struct {
	Companies      []Option `json:"companies"`
	Departments    []Option `json:"departments"`
	Projects       []Option `json:"projects"`
	Plants         []Option `json:"Plants"`
	CostCategories []Option `json:"cost_categories"`
	CostCenters    []Option `json:"cost_centers"`
	IndentItems    []Option `json:"IndentItems"`
	IndentUOM      []Option `json:"Indentuom"`
}

// Master set names as they appear in the dropdown document
const (
	SetCompanies      = "companies"
	SetDepartments    = "departments"
	SetProjects       = "projects"
	SetPlants         = "Plants"
	SetCostCategories = "cost_categories"
	SetCostCenters    = "cost_centers"
	SetIndentItems    = "IndentItems"
	SetIndentUOM      = "Indentuom"
)

// SetNames lists every master set in document order.
var SetNames = []string{
	SetCompanies, SetDepartments, SetProjects, SetPlants,
	SetCostCategories, SetCostCenters, SetIndentItems, SetIndentUOM,
}

// Set returns the named option set, nil for an unknown name.
func (m *MasterData) Set(name string) []Option {
	if m == nil {
		return nil
	}
	switch name {
	case SetCompanies:
		return m.Companies
	case SetDepartments:
		return m.Departments
	case SetProjects:
		return m.Projects
	case SetPlants:
		return m.Plants
	case SetCostCategories:
		return m.CostCategories
	case SetCostCenters:
		return m.CostCenters
	case SetIndentItems:
		return m.IndentItems
	case SetIndentUOM:
		return m.IndentUOM
	}
	return nil
}

// FindOption looks an option up by id.
func FindOption(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if string(o.ID) == id {
			return o, true
		}
	}
	return Option{}, false
}

// NameOf resolves an id to its display name; unknown ids give "".
func NameOf(opts []Option, id string) string {
	o, _ := FindOption(opts, id)
	return o.Name
}

// FetchMasters loads the dropdown document.
func (c *Client) FetchMasters(ctx context.Context) (*MasterData, error) {
	body, err := c.Request(ctx, "GET", mastersPath, nil)
	if err != nil {
		return nil, err
	}

	data := &MasterData{}
	if err := json.Unmarshal(body, data); err != nil {
		return nil, fmt.Errorf("failed to parse master dropdowns: %w", err)
	}
	return data, nil
}
