package models

// DraftField names an editable field of a draft participation event.
type DraftField string

const (
	DraftFieldName   DraftField = "name"
	DraftFieldDate   DraftField = "date"
	DraftFieldNotes  DraftField = "notes"
	DraftFieldPoints DraftField = "points"
	DraftFieldKind   DraftField = "kind"
)

// Valid reports whether f names a draft field.
func (f DraftField) Valid() bool {
	switch f {
	case DraftFieldName, DraftFieldDate, DraftFieldNotes, DraftFieldPoints, DraftFieldKind:
		return true
	}
	return false
}

// DraftParticipationEvent is a participation event still being typed in. Every
// entry holds the raw text the user entered; an empty entry means unset.
type DraftParticipationEvent struct {
	DraftID int    `json:"draftId"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Notes   string `json:"notes"`
	Points  string `json:"points"`
	Kind    string `json:"kind"`
}

// Entry returns the raw text of one field.
func (d DraftParticipationEvent) Entry(field DraftField) string {
	switch field {
	case DraftFieldName:
		return d.Name
	case DraftFieldDate:
		return d.Date
	case DraftFieldNotes:
		return d.Notes
	case DraftFieldPoints:
		return d.Points
	case DraftFieldKind:
		return d.Kind
	}
	return ""
}

// FieldProblem explains why one entry blocks submission.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DraftProblems lists the problems of one draft.
type DraftProblems struct {
	DraftID  int            `json:"draftId"`
	Problems []FieldProblem `json:"problems"`
}
