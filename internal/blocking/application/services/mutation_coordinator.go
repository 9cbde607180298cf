package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	sharedDomain "github.com/felixgeelhaar/salonops/internal/shared/domain"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// SubmissionStatus is the overall outcome of a submission.
type SubmissionStatus string

const (
	StatusSuccess SubmissionStatus = "success"
	StatusPartial SubmissionStatus = "partial"
	StatusFailure SubmissionStatus = "failure"
)

// SubmissionAction names what the submission did.
type SubmissionAction string

const (
	ActionCreated       SubmissionAction = "created"
	ActionSeriesCreated SubmissionAction = "series_created"
	ActionUpdated       SubmissionAction = "updated"
)

// SubmissionResult reports the outcome of Submit. It replaces success and
// error callbacks: the caller inspects it and renders the message.
type SubmissionResult struct {
	Status    SubmissionStatus
	Action    SubmissionAction
	Block     *domain.ScheduleBlock
	Created   int
	Skipped   int
	Estimated int
	Err       *domain.BlockError
}

// Succeeded reports whether the backend accepted the submission. Partial
// recurring results count as success.
func (r SubmissionResult) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartial
}

// Message returns the text to show the user.
func (r SubmissionResult) Message() string {
	if r.Err != nil {
		return r.Err.Message
	}
	switch r.Action {
	case ActionCreated:
		return "Bloqueo creado."
	case ActionUpdated:
		return "Bloqueo actualizado."
	case ActionSeriesCreated:
		if r.Skipped > 0 {
			return fmt.Sprintf("Se crearon %d bloqueos; %d fechas se omitieron por conflictos.", r.Created, r.Skipped)
		}
		return fmt.Sprintf("Se crearon %d bloqueos.", r.Created)
	}
	return ""
}

func failure(err *domain.BlockError) SubmissionResult {
	return SubmissionResult{Status: StatusFailure, Err: err}
}

// MutationCoordinator validates a draft, submits it to the Block API and
// interprets the response. One coordinator serves one form flow; it refuses a
// second submission while one is in flight.
type MutationCoordinator struct {
	api       application.BlockAPI
	session   application.Session
	validator *domain.Validator
	publisher application.EventPublisher
	logger    *slog.Logger
	metrics   observability.Metrics
	busy      atomic.Bool
}

// NewMutationCoordinator creates a coordinator bound to a session.
func NewMutationCoordinator(api application.BlockAPI, session application.Session, logger *slog.Logger) *MutationCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationCoordinator{
		api:       api,
		session:   session,
		validator: domain.NewValidator(""),
		logger:    logger,
		metrics:   observability.NoopMetrics{},
	}
}

// WithValidator replaces the default validator.
func (c *MutationCoordinator) WithValidator(v *domain.Validator) *MutationCoordinator {
	if v != nil {
		c.validator = v
	}
	return c
}

// WithPublisher enables block lifecycle events.
func (c *MutationCoordinator) WithPublisher(p application.EventPublisher) *MutationCoordinator {
	c.publisher = p
	return c
}

// WithMetrics sets the metrics collector.
func (c *MutationCoordinator) WithMetrics(m observability.Metrics) *MutationCoordinator {
	if m != nil {
		c.metrics = m
	}
	return c
}

// IsBusy reports whether a submission is in flight.
func (c *MutationCoordinator) IsBusy() bool {
	return c.busy.Load()
}

// Validate runs the validation sequence without submitting.
func (c *MutationCoordinator) Validate(draft *domain.BlockDraft, bookings []domain.Booking) domain.ValidationResult {
	return c.validator.Validate(draft, bookings)
}

// EstimateRecurringCount returns the preview count for a rule.
func (c *MutationCoordinator) EstimateRecurringCount(rule domain.BlockRule) int {
	return domain.EstimateRecurringCount(rule)
}

// Submit validates draft and, when valid, sends it to the Block API. bookings
// must be the caller's own bookings for the draft's date. The draft is never
// modified.
func (c *MutationCoordinator) Submit(ctx context.Context, draft *domain.BlockDraft, bookings []domain.Booking) SubmissionResult {
	if !c.busy.CompareAndSwap(false, true) {
		return failure(domain.SubmissionError(domain.MsgSubmissionInProgress))
	}
	defer c.busy.Store(false)

	validation := c.validator.Validate(draft, bookings)
	if !validation.OK() {
		c.metrics.Counter(observability.MetricValidationFailures, 1,
			observability.T("kind", string(validation.Err.Kind)))
		c.logger.DebugContext(ctx, "block draft rejected", "kind", validation.Err.Kind, "message", validation.Err.Message)
		return failure(validation.Err)
	}

	var result SubmissionResult
	timer := observability.StartTimer("blocking.submit").WithMetrics(c.metrics)
	switch {
	case validation.Update != nil:
		result = c.submitUpdate(ctx, draft, *validation.Update)
	default:
		switch rule := validation.Rule.(type) {
		case domain.RecurringRule:
			result = c.submitRecurring(ctx, rule)
		case domain.SingleRule:
			result = c.submitSingle(ctx, rule)
		default:
			result = failure(domain.SubmissionError(""))
		}
	}
	result.Estimated = validation.EstimatedCount

	if result.Err != nil {
		timer.WithTags(observability.T(observability.StatusKey, string(StatusFailure))).StopWithError(result.Err)
		c.metrics.Counter(observability.MetricSubmissionFailures, 1)
	} else {
		timer.WithTags(observability.T(observability.StatusKey, string(result.Status))).Stop()
	}
	return result
}

func (c *MutationCoordinator) submitSingle(ctx context.Context, rule domain.SingleRule) SubmissionResult {
	stored, err := c.api.CreateBlock(ctx, c.session, rule)
	if err != nil {
		c.logger.WarnContext(ctx, "create block failed", "professional_id", rule.ProfessionalID, "error", err)
		return failure(submissionFailure(err))
	}

	block := rule.Block()
	if stored != nil {
		block = block.MergeFrom(*stored)
	}
	c.metrics.Counter(observability.MetricBlocksCreated, 1)
	c.logger.InfoContext(ctx, "block created",
		"block_id", block.ID,
		"professional_id", block.ProfessionalID,
		"date", domain.FormatDate(block.Date),
	)
	c.publish(ctx, domain.NewBlockCreated(block))

	return SubmissionResult{Status: StatusSuccess, Action: ActionCreated, Block: &block}
}

func (c *MutationCoordinator) submitRecurring(ctx context.Context, rule domain.RecurringRule) SubmissionResult {
	summary, err := c.api.CreateRecurring(ctx, c.session, rule)
	if err != nil {
		c.logger.WarnContext(ctx, "create recurring blocks failed", "professional_id", rule.ProfessionalID, "error", err)
		return failure(submissionFailure(err))
	}
	if summary == nil {
		summary = &application.RecurringSummary{}
	}

	status := StatusSuccess
	if summary.Skipped > 0 {
		status = StatusPartial
	}
	c.metrics.Counter(observability.MetricBlocksCreated, int64(summary.Created))
	c.metrics.Counter(observability.MetricBlocksSkipped, int64(summary.Skipped))
	c.logger.InfoContext(ctx, "recurring blocks created",
		"professional_id", rule.ProfessionalID,
		"weekdays", rule.Weekdays.String(),
		"created", summary.Created,
		"skipped", summary.Skipped,
	)
	c.publish(ctx, domain.NewSeriesCreated(rule, summary.Created, summary.Skipped))

	return SubmissionResult{
		Status:  status,
		Action:  ActionSeriesCreated,
		Created: summary.Created,
		Skipped: summary.Skipped,
	}
}

func (c *MutationCoordinator) submitUpdate(ctx context.Context, draft *domain.BlockDraft, update domain.BlockUpdate) SubmissionResult {
	stored, err := c.api.UpdateBlock(ctx, c.session, update)
	if err != nil {
		c.logger.WarnContext(ctx, "update block failed", "block_id", update.BlockID, "error", err)
		return failure(submissionFailure(err))
	}

	block := draft.Original()
	block.StartTime = update.StartTime
	block.EndTime = update.EndTime
	block.Reason = update.Reason
	if stored != nil {
		block = block.MergeFrom(*stored)
	}
	c.metrics.Counter(observability.MetricBlocksUpdated, 1)
	c.logger.InfoContext(ctx, "block updated", "block_id", block.ID)
	c.publish(ctx, domain.NewBlockUpdated(block))

	return SubmissionResult{Status: StatusSuccess, Action: ActionUpdated, Block: &block}
}

func (c *MutationCoordinator) publish(ctx context.Context, event sharedDomain.DomainEvent) {
	application.PublishEvents(ctx, c.publisher, c.logger, c.session, event)
}

// submissionFailure classifies every backend rejection as a submission error.
// A backend BlockError keeps its message.
func submissionFailure(err error) *domain.BlockError {
	var blockErr *domain.BlockError
	if errors.As(err, &blockErr) {
		return domain.SubmissionError(blockErr.Message)
	}
	return domain.SubmissionError(application.UserMessage(err, domain.MsgSubmissionFailed))
}
