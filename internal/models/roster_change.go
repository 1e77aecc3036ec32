package models

import "time"

// RosterChangeReason names what changed on the roster.
type RosterChangeReason string

const (
	RosterChangeStudentCreated RosterChangeReason = "student_created"
	RosterChangeStudentDeleted RosterChangeReason = "student_deleted"
	RosterChangeEventAdded     RosterChangeReason = "event_added"
	RosterChangeImported       RosterChangeReason = "roster_imported"
)

// RosterChange is the "data changed" signal broadcast after every roster write.
type RosterChange struct {
	Reason     RosterChangeReason `json:"reason"`
	StudentID  int64              `json:"studentId,omitempty"`
	InstanceID string             `json:"instanceId"`
	OccurredAt time.Time          `json:"occurredAt"`
}
