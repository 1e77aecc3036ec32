package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/chapter-participation-api/internal/models"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	AddEvent(ctx context.Context, studentID int64, event models.ParticipationEvent) error
	TotalPoints(ctx context.Context, studentID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type rosterPublisher interface {
	Publish(ctx context.Context, reason models.RosterChangeReason, studentID int64)
}

// CreateStudentRequest is the create-student contract: a name, a grade level
// and the participation events to attach.
type CreateStudentRequest struct {
	Name                string                      `json:"name" validate:"required"`
	GradeLevel          int                         `json:"gradeLevel" validate:"gte=0"`
	ParticipationEvents []models.ParticipationEvent `json:"participationEvents" validate:"dive"`
}

// StudentService handles roster use-cases.
type StudentService struct {
	repo      studentRepository
	notifier  rosterPublisher
	validator *validator.Validate
	logger    *zap.Logger
	pick      func(n int) int
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, notifier rosterPublisher, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, notifier: notifier, validator: validate, logger: logger, pick: rand.Intn}
}

// List returns the full roster snapshot.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Table returns one summary row per student.
func (s *StudentService) Table(ctx context.Context) ([]models.RosterRow, error) {
	students, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeRoster(students), nil
}

// Create stores a student with all of its events in one write.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	events := req.ParticipationEvents
	if events == nil {
		events = []models.ParticipationEvent{}
	}
	student := &models.Student{Name: req.Name, GradeLevel: req.GradeLevel, ParticipationEvents: events}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.Int("events", len(events)))
	s.publish(ctx, models.RosterChangeStudentCreated, student.ID)
	return student, nil
}

// AddEvent records one participation event for an existing student.
func (s *StudentService) AddEvent(ctx context.Context, studentID int64, event models.ParticipationEvent) error {
	if err := s.validateEvent(event); err != nil {
		return err
	}
	if err := s.repo.AddEvent(ctx, studentID, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add participation event")
	}
	s.publish(ctx, models.RosterChangeEventAdded, studentID)
	return nil
}

// Points returns the total participation points of one student.
func (s *StudentService) Points(ctx context.Context, studentID int64) (int, error) {
	total, err := s.repo.TotalPoints(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation points")
	}
	return total, nil
}

// Delete removes a student and its events.
func (s *StudentService) Delete(ctx context.Context, studentID int64) error {
	if err := s.repo.Delete(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.Int64("student_id", studentID))
	s.publish(ctx, models.RosterChangeStudentDeleted, studentID)
	return nil
}

// PickWinner appoints a uniformly random student from the roster.
func (s *StudentService) PickWinner(ctx context.Context) (*models.Student, error) {
	students, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no students to choose from")
	}
	winner := students[s.pick(len(students))]
	return &winner, nil
}

func (s *StudentService) validateCreate(req CreateStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if strings.TrimSpace(req.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student name is required")
	}
	for _, event := range req.ParticipationEvents {
		if err := s.validateEvent(event); err != nil {
			return err
		}
	}
	return nil
}

func (s *StudentService) validateEvent(event models.ParticipationEvent) error {
	if err := s.validator.Struct(event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participation event")
	}
	if strings.TrimSpace(event.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "participation event name is required")
	}
	if !event.Kind.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "participation event kind must be Sporting or NonSporting")
	}
	return nil
}

func (s *StudentService) publish(ctx context.Context, reason models.RosterChangeReason, studentID int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, reason, studentID)
}
