package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/chapter-participation-api/internal/models"
)

type rosterChannel interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) (<-chan []byte, error)
}

// RosterChangeHandler reacts to a roster change.
type RosterChangeHandler func(ctx context.Context, change models.RosterChange)

// RosterNotifier broadcasts roster changes to in-process subscribers and, when
// a channel is configured, to other API instances.
type RosterNotifier struct {
	channel    rosterChannel
	instanceID string
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.RWMutex
	handlers []RosterChangeHandler
}

// NewRosterNotifier constructs a notifier. channel may be nil for a
// single-instance deployment.
func NewRosterNotifier(channel rosterChannel, metrics *MetricsService, logger *zap.Logger) *RosterNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterNotifier{
		channel:    channel,
		instanceID: uuid.NewString(),
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Subscribe registers a handler for every subsequent change.
func (n *RosterNotifier) Subscribe(handler RosterChangeHandler) {
	n.mu.Lock()
	n.handlers = append(n.handlers, handler)
	n.mu.Unlock()
}

// Publish delivers a change to local subscribers and forwards it to other
// instances. Forwarding failures are logged, never returned.
func (n *RosterNotifier) Publish(ctx context.Context, reason models.RosterChangeReason, studentID int64) {
	if n == nil {
		return
	}
	change := models.RosterChange{
		Reason:     reason,
		StudentID:  studentID,
		InstanceID: n.instanceID,
		OccurredAt: n.now().UTC(),
	}
	n.deliver(ctx, change, "local")

	if n.channel == nil {
		return
	}
	payload, err := json.Marshal(change)
	if err != nil {
		n.logger.Error("marshal roster change", zap.Error(err))
		return
	}
	if err := n.channel.Publish(ctx, payload); err != nil {
		n.logger.Warn("publish roster change", zap.String("reason", string(reason)), zap.Error(err))
	}
}

// Listen relays changes published by other instances until ctx is done. It
// returns immediately when no channel is configured.
func (n *RosterNotifier) Listen(ctx context.Context) error {
	if n.channel == nil {
		return nil
	}
	messages, err := n.channel.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			var change models.RosterChange
			if err := json.Unmarshal(payload, &change); err != nil {
				n.logger.Warn("discard malformed roster change", zap.Error(err))
				continue
			}
			if change.InstanceID == n.instanceID {
				continue
			}
			n.deliver(ctx, change, "remote")
		}
	}
}

func (n *RosterNotifier) deliver(ctx context.Context, change models.RosterChange, origin string) {
	n.mu.RLock()
	handlers := append([]RosterChangeHandler(nil), n.handlers...)
	n.mu.RUnlock()

	n.metrics.RecordRosterChange(string(change.Reason), origin)
	n.logger.Debug("roster changed",
		zap.String("reason", string(change.Reason)),
		zap.Int64("student_id", change.StudentID),
		zap.String("origin", origin),
	)
	for _, handler := range handlers {
		handler(ctx, change)
	}
}
