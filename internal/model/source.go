package model

import (
	"time"

	"github.com/google/uuid"
)

type SourceKind string

const (
	SourceKindKaduu SourceKind = "KADUU"
)

// ThreatSource is a leaked-credential feed checked against one LDAP target.
// LDAPFilter carries an {identity} placeholder expanded per leaked identity;
// LDAPUid names the attribute holding the account identifier reported in
// incidents.
type ThreatSource struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(256);not null;uniqueIndex" json:"name"`
	Kind       SourceKind `gorm:"type:varchar(32);not null" json:"kind"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null" json:"targetId"`
	Target     LDAPTarget `gorm:"foreignKey:TargetID" json:"-"`
	APIBaseURL string     `gorm:"type:varchar(512);not null" json:"apiBaseURL"`
	APIToken   string     `gorm:"type:varchar(512)" json:"-"`
	LDAPFilter string     `gorm:"type:varchar(1024);not null" json:"ldapFilter"`
	LDAPUid    string     `gorm:"type:varchar(256);not null" json:"ldapUid"`
	Last       *time.Time `json:"last,omitempty"`
	Enabled    bool       `gorm:"not null;default:false" json:"enabled"`

	AutoTimeModel
}

// TableName returns the table name for ThreatSource
func (ThreatSource) TableName() string {
	return "threat_sources"
}

func (s *ThreatSource) String() string {
	return s.Name
}
