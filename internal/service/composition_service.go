package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/internal/models"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

const compositionKeyPrefix = "composition:"

type sessionStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type studentCreator interface {
	Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error)
}

// CompositionService keeps one Composition per open add-student dialog.
// Sessions are serialized by a service-wide mutex; a session with a
// submission in flight refuses mutations until the store answers.
type CompositionService struct {
	store     sessionStore
	creator   studentCreator
	ttl       time.Duration
	maxDrafts int
	metrics   *MetricsService
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewCompositionService constructs the service. A non-positive maxDrafts
// disables the draft limit.
func NewCompositionService(store sessionStore, creator studentCreator, ttl time.Duration, maxDrafts int, metrics *MetricsService, logger *zap.Logger) *CompositionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompositionService{
		store:     store,
		creator:   creator,
		ttl:       ttl,
		maxDrafts: maxDrafts,
		metrics:   metrics,
		logger:    logger,
		inFlight:  make(map[string]bool),
	}
}

// Open starts a new session with an empty composition.
func (s *CompositionService) Open(ctx context.Context) (*dto.CompositionView, error) {
	id := uuid.NewString()
	composition := NewComposition()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, id, composition); err != nil {
		return nil, err
	}
	s.metrics.RecordSession("opened")
	s.logger.Debug("composition opened", zap.String("session_id", id))
	view := s.view(id, composition)
	return &view, nil
}

// Get returns the current state of a session.
func (s *CompositionService) Get(ctx context.Context, id string) (*dto.CompositionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	composition, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(id, composition)
	return &view, nil
}

// SetStudent replaces the name and grade entries.
func (s *CompositionService) SetStudent(ctx context.Context, id string, req dto.SetStudentRequest) (*dto.CompositionView, error) {
	return s.mutate(ctx, id, func(c *Composition) error {
		c.SetStudent(req.Name, req.GradeLevel)
		return nil
	})
}

// AddDraft appends an empty draft and returns its id.
func (s *CompositionService) AddDraft(ctx context.Context, id string) (int, *dto.CompositionView, error) {
	var draftID int
	view, err := s.mutate(ctx, id, func(c *Composition) error {
		if s.maxDrafts > 0 && len(c.Drafts) >= s.maxDrafts {
			return appErrors.Clone(appErrors.ErrValidation, "a student can be composed with at most "+strconv.Itoa(s.maxDrafts)+" participation events")
		}
		draftID = c.AddDraft()
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return draftID, view, nil
}

// EditField replaces one field of a draft.
func (s *CompositionService) EditField(ctx context.Context, id string, draftID int, field models.DraftField, value string) (*dto.CompositionView, error) {
	return s.mutate(ctx, id, func(c *Composition) error {
		return s.draftError(id, draftID, c.EditField(draftID, field, value))
	})
}

// RemoveDraft deletes a draft.
func (s *CompositionService) RemoveDraft(ctx context.Context, id string, draftID int) (*dto.CompositionView, error) {
	return s.mutate(ctx, id, func(c *Composition) error {
		return s.draftError(id, draftID, c.RemoveDraft(draftID))
	})
}

// Reset clears the drafts and restores the default student entries.
func (s *CompositionService) Reset(ctx context.Context, id string) (*dto.CompositionView, error) {
	return s.mutate(ctx, id, func(c *Composition) error {
		c.Reset()
		return nil
	})
}

// Close dismisses a session. A submission still in flight completes in the
// store but its result is no longer applied to the session.
func (s *CompositionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, compositionKeyPrefix+id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close composition")
	}
	s.metrics.RecordSession("closed")
	s.logger.Debug("composition closed", zap.String("session_id", id), zap.Bool("submitting", s.inFlight[id]))
	return nil
}

// Submit creates the composed student. It refuses incomplete compositions.
// On success the session is reset; on failure it is left exactly as it was
// and the error is returned without retrying.
func (s *CompositionService) Submit(ctx context.Context, id string) (*models.Student, error) {
	s.mu.Lock()
	if s.inFlight[id] {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "composition is already being submitted")
	}
	composition, err := s.load(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	req, err := composition.Payload()
	if err != nil {
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "composition is not ready for submission")
	}
	s.inFlight[id] = true
	s.mu.Unlock()

	student, createErr := s.creator.Create(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)

	if createErr != nil {
		s.metrics.RecordSubmission("failed")
		s.logger.Warn("composition submission failed", zap.String("session_id", id), zap.Error(createErr))
		return nil, createErr
	}
	s.metrics.RecordSubmission("succeeded")

	current, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			s.logger.Info("composition closed during submission", zap.String("session_id", id), zap.Int64("student_id", student.ID))
			return student, nil
		}
		return student, err
	}
	current.Reset()
	if err := s.save(ctx, id, current); err != nil {
		return student, err
	}
	return student, nil
}

func (s *CompositionService) mutate(ctx context.Context, id string, apply func(*Composition) error) (*dto.CompositionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return nil, appErrors.Clone(appErrors.ErrConflict, "composition is being submitted")
	}
	composition, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(composition); err != nil {
		return nil, err
	}
	if err := s.save(ctx, id, composition); err != nil {
		return nil, err
	}
	view := s.view(id, composition)
	return &view, nil
}

func (s *CompositionService) draftError(id string, draftID int, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDraftNotFound):
		s.logger.Warn("draft id not in composition", zap.String("session_id", id), zap.Int("draft_id", draftID))
		return appErrors.Clone(appErrors.ErrNotFound, "draft not found")
	case errors.Is(err, ErrUnknownDraftField):
		return appErrors.Clone(appErrors.ErrValidation, "field must be one of name, date, notes, points, kind")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update draft")
	}
}

func (s *CompositionService) load(ctx context.Context, id string) (*Composition, error) {
	var composition Composition
	if err := s.store.Get(ctx, compositionKeyPrefix+id, &composition); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "composition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load composition")
	}
	if composition.Drafts == nil {
		composition.Drafts = []models.DraftParticipationEvent{}
	}
	return &composition, nil
}

func (s *CompositionService) save(ctx context.Context, id string, composition *Composition) error {
	if err := s.store.Set(ctx, compositionKeyPrefix+id, composition, s.ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save composition")
	}
	return nil
}

func (s *CompositionService) view(id string, composition *Composition) dto.CompositionView {
	studentProblems := composition.StudentProblems()
	if studentProblems == nil {
		studentProblems = []models.FieldProblem{}
	}
	return dto.CompositionView{
		ID:              id,
		StudentName:     composition.StudentName,
		GradeLevel:      composition.GradeLevel,
		Drafts:          composition.Drafts,
		Ready:           composition.Ready(),
		Submitting:      s.inFlight[id],
		StudentProblems: studentProblems,
		DraftProblems:   composition.DraftProblems(),
	}
}
