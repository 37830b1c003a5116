package notion

// PropertyType is the discriminator of a page property.
type PropertyType string

const (
	PropertySelect   PropertyType = "select"
	PropertyCheckbox PropertyType = "checkbox"
	PropertyDate     PropertyType = "date"
)

// SortDirection orders query results.
type SortDirection string

const (
	Ascending  SortDirection = "ascending"
	Descending SortDirection = "descending"
)

// SelectOption is the value of a select property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is the value of a date property. End and TimeZone are carried
// through but not interpreted.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// Property holds a page property as returned by the API. Only the payload
// field matching Type is meaningful; use the As* accessors to read it.
type Property struct {
	ID       string        `json:"id,omitempty"`
	Type     PropertyType  `json:"type"`
	Select   *SelectOption `json:"select,omitempty"`
	Checkbox *bool         `json:"checkbox,omitempty"`
	Date     *DateValue    `json:"date,omitempty"`
}

// AsSelect returns the selected option. ok is false when the property is
// not a select. A select with nothing chosen returns (nil, true).
func (p Property) AsSelect() (opt *SelectOption, ok bool) {
	if p.Type != PropertySelect {
		return nil, false
	}
	return p.Select, true
}

// AsCheckbox returns the checkbox state. ok is false when the property is
// not a checkbox or carries no boolean.
func (p Property) AsCheckbox() (checked bool, ok bool) {
	if p.Type != PropertyCheckbox || p.Checkbox == nil {
		return false, false
	}
	return *p.Checkbox, true
}

// AsDate returns the date value. ok is false when the property is not a
// date. An empty date returns (nil, true).
func (p Property) AsDate() (date *DateValue, ok bool) {
	if p.Type != PropertyDate {
		return nil, false
	}
	return p.Date, true
}

// Page is one record of a data source. Properties is nil when the API
// returned a partial object.
type Page struct {
	Object     string              `json:"object"`
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// CheckboxFilter matches a checkbox property.
type CheckboxFilter struct {
	Equals *bool `json:"equals,omitempty"`
}

// Filter is a property condition of a data source query.
type Filter struct {
	Property string          `json:"property"`
	Checkbox *CheckboxFilter `json:"checkbox,omitempty"`
}

// CheckboxEquals builds a filter matching records whose checkbox equals v.
func CheckboxEquals(property string, v bool) *Filter {
	return &Filter{Property: property, Checkbox: &CheckboxFilter{Equals: &v}}
}

// Sort orders a query by one property.
type Sort struct {
	Property  string        `json:"property"`
	Direction SortDirection `json:"direction"`
}

// MaxPageSize is the largest page the query endpoint returns.
const MaxPageSize = 100

// QueryRequest is the body of a data source query.
type QueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// QueryResponse is one page of query results.
type QueryResponse struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// PropertyValue is a property payload for page updates. A nil value is
// sent as JSON null, which clears the property.
type PropertyValue map[string]any

// CheckboxValue sets a checkbox property.
func CheckboxValue(v bool) PropertyValue {
	return PropertyValue{"checkbox": v}
}

// DateStart sets a date property to a single start value.
func DateStart(start string) PropertyValue {
	return PropertyValue{"date": DateValue{Start: start}}
}

// ClearDate empties a date property.
func ClearDate() PropertyValue {
	return PropertyValue{"date": nil}
}
