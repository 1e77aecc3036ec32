package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/noah-isme/chapter-participation-api/internal/models"
)

// DefaultCompositionGrade is the grade entry of a fresh composition.
const DefaultCompositionGrade = "10"

var (
	// ErrDraftNotFound reports an edit or removal addressed to a draft id that
	// is not in the composition. Ids always come from the current collection,
	// so this indicates a client defect.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrUnknownDraftField reports an edit of a field drafts do not have.
	ErrUnknownDraftField = errors.New("unknown draft field")
	// ErrCompositionNotReady is returned when a payload is requested for a
	// composition that fails IsReadyForSubmission.
	ErrCompositionNotReady = errors.New("composition is not ready for submission")
)

// Composition is the editable state of an "add student" dialog: the student
// entries plus the ordered drafts to attach. It is owned by a single caller
// and is not safe for concurrent use.
type Composition struct {
	StudentName string                           `json:"studentName"`
	GradeLevel  string                           `json:"gradeLevel"`
	Drafts      []models.DraftParticipationEvent `json:"drafts"`
	NextDraftID int                              `json:"nextDraftId"`
}

// NewComposition returns an empty composition with default student entries.
func NewComposition() *Composition {
	return &Composition{
		GradeLevel:  DefaultCompositionGrade,
		Drafts:      []models.DraftParticipationEvent{},
		NextDraftID: 1,
	}
}

// SetStudent replaces the student-level entries.
func (c *Composition) SetStudent(name, gradeLevel string) {
	c.StudentName = name
	c.GradeLevel = gradeLevel
}

// AddDraft appends an empty draft and returns its id. Ids come from a
// session counter and are never reused, even after removals or a reset.
func (c *Composition) AddDraft() int {
	if c.NextDraftID < 1 {
		c.NextDraftID = 1
	}
	id := c.NextDraftID
	c.NextDraftID++
	c.Drafts = append(c.Drafts, models.DraftParticipationEvent{DraftID: id})
	return id
}

// EditField replaces exactly one entry of a draft. Nothing changes when the
// draft or field is unknown.
func (c *Composition) EditField(draftID int, field models.DraftField, value string) error {
	if !field.Valid() {
		return ErrUnknownDraftField
	}
	idx := c.indexOf(draftID)
	if idx < 0 {
		return ErrDraftNotFound
	}

	draft := &c.Drafts[idx]
	switch field {
	case models.DraftFieldName:
		draft.Name = value
	case models.DraftFieldDate:
		draft.Date = value
	case models.DraftFieldNotes:
		draft.Notes = value
	case models.DraftFieldPoints:
		draft.Points = value
	case models.DraftFieldKind:
		draft.Kind = value
	}
	return nil
}

// RemoveDraft deletes a draft, keeping the order of the rest. An unknown id
// leaves the composition untouched and yields ErrDraftNotFound.
func (c *Composition) RemoveDraft(draftID int) error {
	idx := c.indexOf(draftID)
	if idx < 0 {
		return ErrDraftNotFound
	}
	c.Drafts = append(c.Drafts[:idx], c.Drafts[idx+1:]...)
	return nil
}

// Reset discards every draft and restores the default student entries.
func (c *Composition) Reset() {
	c.StudentName = ""
	c.GradeLevel = DefaultCompositionGrade
	c.Drafts = []models.DraftParticipationEvent{}
}

// Ready reports whether the composition may be submitted.
func (c *Composition) Ready() bool {
	return IsReadyForSubmission(c.StudentName, c.GradeLevel, c.Drafts)
}

// Payload converts the composition into a create request.
func (c *Composition) Payload() (CreateStudentRequest, error) {
	return ToSubmissionPayload(c.StudentName, c.GradeLevel, c.Drafts)
}

// StudentProblems lists problems with the student-level entries.
func (c *Composition) StudentProblems() []models.FieldProblem {
	_, problems := parseStudentEntries(c.StudentName, c.GradeLevel)
	return problems
}

// DraftProblems lists the problems of every draft that is not ready, in
// draft order.
func (c *Composition) DraftProblems() []models.DraftProblems {
	result := make([]models.DraftProblems, 0)
	for _, draft := range c.Drafts {
		if _, problems := parseDraft(draft); len(problems) > 0 {
			result = append(result, models.DraftProblems{DraftID: draft.DraftID, Problems: problems})
		}
	}
	return result
}

func (c *Composition) indexOf(draftID int) int {
	for i := range c.Drafts {
		if c.Drafts[i].DraftID == draftID {
			return i
		}
	}
	return -1
}

// IsReadyForSubmission holds when the name is non-empty, the grade is a
// non-negative integer and every draft has a name, date, kind and points.
// Notes are optional. A single incomplete draft blocks the whole submission.
func IsReadyForSubmission(name, gradeLevel string, drafts []models.DraftParticipationEvent) bool {
	if _, problems := parseStudentEntries(name, gradeLevel); len(problems) > 0 {
		return false
	}
	for _, draft := range drafts {
		if _, problems := parseDraft(draft); len(problems) > 0 {
			return false
		}
	}
	return true
}

// ToSubmissionPayload maps every draft to a participation event, in order,
// dropping draft ids and turning blank notes into nil. It fails with
// ErrCompositionNotReady when IsReadyForSubmission does not hold.
func ToSubmissionPayload(name, gradeLevel string, drafts []models.DraftParticipationEvent) (CreateStudentRequest, error) {
	grade, problems := parseStudentEntries(name, gradeLevel)
	if len(problems) > 0 {
		return CreateStudentRequest{}, ErrCompositionNotReady
	}

	events := make([]models.ParticipationEvent, 0, len(drafts))
	for _, draft := range drafts {
		event, problems := parseDraft(draft)
		if len(problems) > 0 {
			return CreateStudentRequest{}, ErrCompositionNotReady
		}
		events = append(events, event)
	}

	return CreateStudentRequest{Name: name, GradeLevel: grade, ParticipationEvents: events}, nil
}

func parseStudentEntries(name, gradeLevel string) (int, []models.FieldProblem) {
	var problems []models.FieldProblem
	if strings.TrimSpace(name) == "" {
		problems = append(problems, models.FieldProblem{Field: "name", Message: "student name is required"})
	}
	grade, err := parseNonNegative(gradeLevel)
	if err != nil {
		problems = append(problems, models.FieldProblem{Field: "gradeLevel", Message: "grade level " + err.Error()})
	}
	return grade, problems
}

// requiredDraftFields are the entries a draft needs before it can be submitted.
var requiredDraftFields = []models.DraftField{
	models.DraftFieldName,
	models.DraftFieldDate,
	models.DraftFieldPoints,
	models.DraftFieldKind,
}

func parseDraft(draft models.DraftParticipationEvent) (models.ParticipationEvent, []models.FieldProblem) {
	var (
		event    models.ParticipationEvent
		problems []models.FieldProblem
	)

	missing := make(map[models.DraftField]bool, len(requiredDraftFields))
	for _, field := range requiredDraftFields {
		if strings.TrimSpace(draft.Entry(field)) == "" {
			missing[field] = true
			problems = append(problems, models.FieldProblem{Field: string(field), Message: string(field) + " is required"})
		}
	}

	event.Name = draft.Name

	if !missing[models.DraftFieldDate] {
		seconds, err := strconv.ParseInt(strings.TrimSpace(draft.Date), 10, 64)
		if err != nil || seconds < 0 {
			problems = append(problems, models.FieldProblem{Field: string(models.DraftFieldDate), Message: "date must be epoch seconds"})
		}
		event.Date = seconds
	}

	if !missing[models.DraftFieldPoints] {
		points, err := parseNonNegative(draft.Points)
		if err != nil {
			problems = append(problems, models.FieldProblem{Field: string(models.DraftFieldPoints), Message: "points " + err.Error()})
		}
		event.Points = points
	}

	if !missing[models.DraftFieldKind] {
		kind, err := models.ParseEventKind(strings.TrimSpace(draft.Kind))
		if err != nil {
			problems = append(problems, models.FieldProblem{Field: string(models.DraftFieldKind), Message: "kind must be Sporting or NonSporting"})
		}
		event.Kind = kind
	}

	if strings.TrimSpace(draft.Notes) != "" {
		notes := draft.Notes
		event.Notes = &notes
	}

	return event, problems
}

func parseNonNegative(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errors.New("is required")
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return value, nil
}
