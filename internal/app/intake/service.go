// internal/app/intake/service.go
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/formdrop/internal/app/notify"
	"github.com/dalemusser/formdrop/internal/domain/models"
	"go.uber.org/zap"
)

// Appender persists a submission and returns it with its assigned ID.
type Appender interface {
	Append(ctx context.Context, sub models.Submission) (models.Submission, error)
}

// Notifier delivers the best-effort admin notification.
type Notifier interface {
	Notify(ctx context.Context, sub models.Submission) notify.Result
}

// Outcome is the result of an accepted submission.
type Outcome struct {
	Submission   models.Submission
	Strategy     string
	Notification notify.Result
}

// Service runs normalize, validate, persist, notify.
type Service struct {
	normalizer *Normalizer
	store      Appender
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the pipeline. A nil normalizer uses DefaultAliases.
func NewService(n *Normalizer, store Appender, notifier Notifier, logger *zap.Logger) *Service {
	if n == nil {
		n = NewNormalizer(Aliases{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		normalizer: n,
		store:      store,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit processes one decoded payload. It returns a *ValidationError when
// a required field is empty; nothing is stored or sent then. When the append
// fails it returns a wrapped *StoreError, after still mailing the admin so
// the submission is not lost. Notification failure is reported only in
// Outcome.Notification.
func (s *Service) Submit(ctx context.Context, p Payload) (Outcome, error) {
	fields, strategy := s.normalizer.Normalize(p)

	s.logger.Info("submission received",
		zap.String("strategy", strategy),
		zap.Bool("has_name", fields.Name != ""),
		zap.Bool("has_email", fields.Email != ""),
		zap.Bool("has_phone", fields.Phone != ""),
		zap.Bool("has_message", fields.Message != ""),
		zap.Int("payload_keys", len(p)),
	)

	if err := Validate(fields); err != nil {
		s.logger.Info("submission rejected", zap.Error(err))
		return Outcome{}, err
	}

	sub := models.Submission{
		Name:      fields.Name,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Message:   fields.Message,
		Timestamp: models.FormatTimestamp(s.now()),
	}
	saved, err := s.store.Append(ctx, sub)
	if err != nil {
		s.logger.Error("submission not stored", zap.Error(err))
		out := Outcome{Submission: sub, Strategy: strategy, Notification: s.notify(ctx, sub)}
		return out, fmt.Errorf("store submission: %w", err)
	}
	s.logger.Info("submission stored", zap.Int("id", saved.ID))

	return Outcome{Submission: saved, Strategy: strategy, Notification: s.notify(ctx, saved)}, nil
}

// notify runs the notifier. A panicking notifier counts as a failed send.
func (s *Service) notify(ctx context.Context, sub models.Submission) (res notify.Result) {
	if s.notifier == nil {
		return notify.Result{Status: notify.StatusSkipped}
	}
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("notifier panic: %v", rec)
			s.logger.Error("notification failed", zap.Int("id", sub.ID), zap.Error(err))
			res = notify.Result{Status: notify.StatusFailed, Err: err}
		}
	}()
	return s.notifier.Notify(ctx, sub)
}
