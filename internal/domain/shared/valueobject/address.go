package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address value object.
// Orders keep a copy taken at checkout time so later profile edits do not
// rewrite where a historical order was shipped.
type Address struct {
	FullName   string `json:"fullName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// NewAddress creates a validated Address. Line1, city and country are required.
func NewAddress(line1, city, state, postalCode, country string) (Address, error) {
	a := Address{
		Line1:      strings.TrimSpace(line1),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(state),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.TrimSpace(country),
	}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Validate checks required fields and lengths
func (a Address) Validate() error {
	if a.Line1 == "" {
		return fmt.Errorf("address line cannot be empty")
	}
	if len(a.Line1) > 255 || len(a.Line2) > 255 {
		return fmt.Errorf("address line cannot exceed 255 characters")
	}
	if a.City == "" {
		return fmt.Errorf("city cannot be empty")
	}
	if len(a.City) > 100 || len(a.State) > 100 {
		return fmt.Errorf("city and state cannot exceed 100 characters")
	}
	if len(a.PostalCode) > 20 {
		return fmt.Errorf("postal code cannot exceed 20 characters")
	}
	if a.Country == "" {
		return fmt.Errorf("country cannot be empty")
	}
	return nil
}

// WithRecipient returns a copy with the recipient name and phone set
func (a Address) WithRecipient(fullName, phone string) Address {
	a.FullName = strings.TrimSpace(fullName)
	a.Phone = strings.TrimSpace(phone)
	return a
}

// IsEmpty returns true if no location field is set
func (a Address) IsEmpty() bool {
	return a.Line1 == "" && a.Line2 == "" && a.City == "" && a.State == "" &&
		a.PostalCode == "" && a.Country == ""
}

// String formats the address on a single line
func (a Address) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() && a.FullName == "" && a.Phone == "" {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
// Stored snapshots are not re-validated: legacy rows may be partial.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = Address{}
		return nil
	}

	type plain Address
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to scan address: %w", err)
	}
	*a = Address(p)
	return nil
}
