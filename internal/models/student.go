package models

// Student is a chapter member together with every recorded participation event.
type Student struct {
	ID                  int64                `json:"id"`
	Name                string               `json:"name"`
	GradeLevel          int                  `json:"gradeLevel"`
	ParticipationEvents []ParticipationEvent `json:"participationEvents"`
}

// ParticipationEvent is one persisted instance of a student taking part in an
// activity. Notes is nil when absent and always serialized (as null).
type ParticipationEvent struct {
	Name   string    `json:"name" validate:"required"`
	Date   int64     `json:"date" validate:"gte=0"`
	Notes  *string   `json:"notes"`
	Points int       `json:"points" validate:"gte=0"`
	Kind   EventKind `json:"kind"`
}

// StudentRecord maps a row of the students table.
type StudentRecord struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	GradeLevel int    `db:"grade_level"`
}

// EventRecord maps a row of the participation_events table.
type EventRecord struct {
	ID        int64     `db:"id"`
	StudentID int64     `db:"student_id"`
	Name      string    `db:"name"`
	Date      int64     `db:"date"`
	Notes     *string   `db:"notes"`
	Points    int       `db:"points"`
	Kind      EventKind `db:"kind"`
}

// Event converts the row into its API shape.
func (r EventRecord) Event() ParticipationEvent {
	return ParticipationEvent{Name: r.Name, Date: r.Date, Notes: r.Notes, Points: r.Points, Kind: r.Kind}
}

// Roster is the fetch-roster response shape.
type Roster struct {
	Students []Student `json:"students"`
}
