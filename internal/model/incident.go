package model

import (
	"context"

	"github.com/google/uuid"
	"github.com/jxskiss/base62"
	"github.com/looplab/fsm"
)

type IncidentState string

const (
	IncidentStateOpen     IncidentState = "OPEN"
	IncidentStateNotified IncidentState = "NOTIFIED"
	IncidentStateResolved IncidentState = "RESOLVED"
)

const (
	IncidentEventNotify  = "notify"
	IncidentEventResolve = "resolve"
)

// Incident is a confirmed leaked credential: the leaked password
// authenticated against the directory for the account identified by UID.
// ForeignID is the identifier of the leak record at the source.
type Incident struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	SourceID  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_incident_dedup" json:"sourceId"`
	UID       string        `gorm:"type:varchar(256);not null;uniqueIndex:idx_incident_dedup" json:"uid"`
	ForeignID string        `gorm:"type:varchar(256);not null;uniqueIndex:idx_incident_dedup" json:"foreignId"`
	Details   string        `gorm:"type:text" json:"details"`
	State     IncidentState `gorm:"type:varchar(32);not null;default:'OPEN'" json:"state"`

	AutoTimeModel
}

// TableName returns the table name for Incident
func (Incident) TableName() string {
	return "incidents"
}

// Reference is a short token correlating the incident with external tickets.
func (i *Incident) Reference() string {
	return base62.EncodeToString(i.ID[:])
}

func (i *Incident) machine() *fsm.FSM {
	return fsm.NewFSM(
		string(i.State),
		fsm.Events{
			{Name: IncidentEventNotify, Src: []string{string(IncidentStateOpen)}, Dst: string(IncidentStateNotified)},
			{Name: IncidentEventResolve, Src: []string{
				string(IncidentStateOpen),
				string(IncidentStateNotified),
			}, Dst: string(IncidentStateResolved)},
		},
		fsm.Callbacks{},
	)
}

// Notify moves the incident to NOTIFIED once responders have been dispatched.
func (i *Incident) Notify(ctx context.Context) error {
	return i.transition(ctx, IncidentEventNotify)
}

// Resolve closes the incident.
func (i *Incident) Resolve(ctx context.Context) error {
	return i.transition(ctx, IncidentEventResolve)
}

func (i *Incident) transition(ctx context.Context, event string) error {
	m := i.machine()

	err := m.Event(ctx, event)
	if err != nil {
		return err
	}

	i.State = IncidentState(m.Current())

	return nil
}
