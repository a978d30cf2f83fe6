package model

import (
	"github.com/google/uuid"
)

type ResponderKind string

const (
	ResponderKindMail ResponderKind = "MAIL"
	ResponderKindJira ResponderKind = "JIRA"
)

// Responder is the base row of the polymorphic responder hierarchy. Kind
// selects the concrete table carrying the delivery parameters.
type Responder struct {
	ID      uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string        `gorm:"type:varchar(256);not null;uniqueIndex" json:"name"`
	Kind    ResponderKind `gorm:"type:varchar(32);not null" json:"kind"`
	Enabled bool          `gorm:"not null;default:false" json:"enabled"`

	AutoTimeModel
}

// TableName returns the table name for Responder
func (Responder) TableName() string {
	return "responders"
}

type MailResponder struct {
	ResponderID uuid.UUID                `gorm:"type:uuid;primaryKey" json:"responderId"`
	Responder   Responder                `gorm:"foreignKey:ResponderID" json:"-"`
	Subject     string                   `gorm:"type:varchar(256);not null" json:"subject"`
	Recipients  []MailResponderRecipient `gorm:"foreignKey:ResponderID" json:"recipients,omitempty"`

	AutoTimeModel
}

// TableName returns the table name for MailResponder
func (MailResponder) TableName() string {
	return "mail_responders"
}

type MailResponderRecipient struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResponderID uuid.UUID `gorm:"type:uuid;not null;index" json:"responderId"`
	Address     string    `gorm:"type:varchar(256);not null" json:"address"`

	AutoTimeModel
}

// TableName returns the table name for MailResponderRecipient
func (MailResponderRecipient) TableName() string {
	return "mail_responder_recipients"
}

type JiraResponder struct {
	ResponderID uuid.UUID `gorm:"type:uuid;primaryKey" json:"responderId"`
	Responder   Responder `gorm:"foreignKey:ResponderID" json:"-"`
	Project     string    `gorm:"type:varchar(64);not null" json:"project"`
	IssueType   string    `gorm:"type:varchar(64);not null;default:'Task'" json:"issueType"`

	AutoTimeModel
}

// TableName returns the table name for JiraResponder
func (JiraResponder) TableName() string {
	return "jira_responders"
}

// SourceResponder binds a responder to a threat source.
type SourceResponder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sourceId"`
	ResponderID uuid.UUID `gorm:"type:uuid;not null;index" json:"responderId"`

	AutoTimeModel
}

// TableName returns the table name for SourceResponder
func (SourceResponder) TableName() string {
	return "source_responders"
}
