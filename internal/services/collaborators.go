package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/metrics"
	"github.com/ngenohkevin/circulation/internal/models"
)

// Job is one notification waiting to be delivered. Key identifies the job:
// enqueueing a job whose key is already queued replaces it.
type Job struct {
	Key        string            `json:"key"`
	TemplateID string            `json:"template_id"`
	Recipient  string            `json:"recipient"`
	Context    map[string]string `json:"context"`
	RunAt      time.Time         `json:"run_at"`
	Attempts   int               `json:"attempts"`
	LastError  string            `json:"last_error,omitempty"`
}

// TaskQueue schedules notification jobs for later delivery.
type TaskQueue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Sender delivers a single job.
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// AuditRecorder writes the audit trail. actorID 0 means the system.
type AuditRecorder interface {
	Record(ctx context.Context, actorID int32, eventType, description string) error
}

// EventPublisher stages domain events for other services.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// NotificationScheduler turns lifecycle transitions into notification jobs.
type NotificationScheduler interface {
	ReservationRequested(ctx context.Context, r *models.Reservation) error
	ReservationReady(ctx context.Context, r *models.Reservation) error
	LoanIssued(ctx context.Context, loan *models.Loan) error
	FineImposed(ctx context.Context, loan *models.Loan, fine *models.Fine) error
	FinesCollected(ctx context.Context, result *models.CollectionResult) error
}

// SettingsProvider supplies the library-wide rules.
type SettingsProvider interface {
	LibrarySettings(ctx context.Context) (models.LibrarySettings, error)
	NotificationSettings(ctx context.Context) (models.NotificationSettings, error)
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, int32, string, string) error { return nil }

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type nopNotifier struct{}

func (nopNotifier) ReservationRequested(context.Context, *models.Reservation) error { return nil }
func (nopNotifier) ReservationReady(context.Context, *models.Reservation) error     { return nil }
func (nopNotifier) LoanIssued(context.Context, *models.Loan) error                  { return nil }
func (nopNotifier) FineImposed(context.Context, *models.Loan, *models.Fine) error   { return nil }
func (nopNotifier) FinesCollected(context.Context, *models.CollectionResult) error  { return nil }

// sideEffects runs the post-commit collaborators of an engine. Their failures
// are logged and counted, never returned.
type sideEffects struct {
	audit    AuditRecorder
	notifier NotificationScheduler
	events   EventPublisher
	logger   *slog.Logger
}

func newSideEffects(logger *slog.Logger) sideEffects {
	if logger == nil {
		logger = slog.Default()
	}
	return sideEffects{
		audit:    nopAudit{},
		notifier: nopNotifier{},
		events:   NopPublisher{},
		logger:   logger,
	}
}

func (e sideEffects) record(ctx context.Context, actor models.Actor, eventType, description string) {
	e.dependency("audit", e.audit.Record(ctx, actor.UserID, eventType, description))
}

func (e sideEffects) publish(ctx context.Context, routingKey string, payload interface{}) {
	e.dependency("events", e.events.Publish(ctx, routingKey, payload))
}

func (e sideEffects) dependency(collaborator string, err error) {
	if err == nil {
		return
	}
	metrics.DependencyFailures.WithLabelValues(collaborator).Inc()
	e.logger.Warn("Side effect failed",
		"collaborator", collaborator,
		"error", apperrors.Dependency(collaborator, err),
	)
}
