package dto

import "github.com/noah-isme/chapter-participation-api/internal/models"

// CompositionView is the state of one composition session as shown to the
// add-student dialog.
type CompositionView struct {
	ID              string                           `json:"id"`
	StudentName     string                           `json:"studentName"`
	GradeLevel      string                           `json:"gradeLevel"`
	Drafts          []models.DraftParticipationEvent `json:"drafts"`
	Ready           bool                             `json:"readyForSubmission"`
	Submitting      bool                             `json:"submitting"`
	StudentProblems []models.FieldProblem            `json:"studentProblems"`
	DraftProblems   []models.DraftProblems           `json:"draftProblems"`
}

// SetStudentRequest replaces the student entries of a composition.
type SetStudentRequest struct {
	Name       string `json:"name"`
	GradeLevel string `json:"gradeLevel"`
}

// EditDraftRequest replaces one field of a draft.
type EditDraftRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// AddDraftResponse returns the id of a new draft with the updated session.
type AddDraftResponse struct {
	DraftID     int             `json:"draftId"`
	Composition CompositionView `json:"composition"`
}
