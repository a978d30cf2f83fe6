package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"slices"
)

var ErrUnsupportedNamesValue = errors.New("unsupported database value for organization names")

// LangNames maps a language code to the organization name in that language.
// Stored as JSONB.
type LangNames map[string]string

func (n LangNames) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}

	return json.Marshal(n)
}

func (n *LangNames) Scan(value any) error {
	if value == nil {
		*n = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	default:
		return ErrUnsupportedNamesValue
	}
}

// Organization mirrors the subset of the upstream registry the group sync
// reads. The primary key is the upstream identifier, not a generated one, so
// refreshes are plain upserts.
type Organization struct {
	ID      int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Names   LangNames `gorm:"type:jsonb" json:"names"`
	Persons []Person  `gorm:"many2many:org_memberships" json:"persons,omitempty"`

	AutoTimeModel
}

// TableName returns the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

// Name returns the organization name in the requested language, falling back
// to the lexicographically first language so the result is deterministic.
func (o *Organization) Name(language string) string {
	if name, ok := o.Names[language]; ok && name != "" {
		return name
	}

	langs := make([]string, 0, len(o.Names))
	for lang, name := range o.Names {
		if name != "" {
			langs = append(langs, lang)
		}
	}

	if len(langs) == 0 {
		return ""
	}

	slices.Sort(langs)

	return o.Names[langs[0]]
}

// AllNames returns every non-empty name variant, sorted, for use as the
// group description.
func (o *Organization) AllNames() []string {
	names := make([]string, 0, len(o.Names))
	for _, name := range o.Names {
		if name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// OrgMembership is the organizations to persons join row. Gorm reads it for
// the Persons association; the registry refresh writes it directly so that
// members who left an organization actually lose the row.
type OrgMembership struct {
	OrganizationID int64 `gorm:"primaryKey;autoIncrement:false" json:"organizationId"`
	PersonID       int64 `gorm:"primaryKey;autoIncrement:false" json:"personId"`
}

// TableName returns the table name for OrgMembership
func (OrgMembership) TableName() string {
	return "org_memberships"
}

// Person is an upstream registry member of one or more organizations.
type Person struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username string `gorm:"type:varchar(256);not null;index" json:"username"`
	Employed bool   `gorm:"not null;default:false" json:"employed"`

	AutoTimeModel
}

// TableName returns the table name for Person
func (Person) TableName() string {
	return "persons"
}
