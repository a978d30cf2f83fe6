package model

import (
	"github.com/google/uuid"
)

// LDAPTarget is a downstream directory the organization groups are
// synchronized into. BindPassword is stored as written; the database is the
// system of record for target credentials, matching the admin workflow.
type LDAPTarget struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URL          string    `gorm:"type:varchar(512);not null;uniqueIndex" json:"url"`
	BindDN       string    `gorm:"type:varchar(256);not null" json:"bindDN"`
	BindPassword string    `gorm:"type:varchar(256);not null" json:"-"`
	GroupBase    string    `gorm:"type:varchar(1024);not null" json:"groupBase"`
	UserBase     string    `gorm:"type:varchar(1024);not null" json:"userBase"`
	Enabled      bool      `gorm:"not null;default:false" json:"enabled"`

	AutoTimeModel
}

// TableName returns the table name for LDAPTarget
func (LDAPTarget) TableName() string {
	return "ldap_targets"
}

func (t *LDAPTarget) String() string {
	return t.URL
}
