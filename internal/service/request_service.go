package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/cahsa-api/internal/dto"
	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/internal/repository"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
	"github.com/noah-isme/cahsa-api/pkg/events"
)

type requestStore interface {
	Get(ctx context.Context, id string) (*models.RequestRecord, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestSummary, error)
	Insert(ctx context.Context, req *models.SubstitutionRequest) error
	Update(ctx context.Context, req *models.SubstitutionRequest) error
	SetStatus(ctx context.Context, params repository.SetStatusParams) error
}

type studentLookup interface {
	Refresh(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error)
}

type programLookup interface {
	ProgramsForDepartment(ctx context.Context, departmentID int) ([]string, error)
}

type advisorLookup interface {
	FindByID(ctx context.Context, id string) (*models.Advisor, error)
}

type notifier interface {
	Notify(ctx context.Context, kind NotificationKind, to Recipient, data NotificationData) bool
}

type eventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RequestService owns the substitution request lifecycle: creation, edits
// that re-queue a request, reviewer decisions and their notifications.
type RequestService struct {
	store     requestStore
	students  studentLookup
	programs  programLookup
	advisors  advisorLookup
	notifier  notifier
	policy    ReviewPolicy
	events    eventPublisher
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// RequestServiceOption configures optional collaborators.
type RequestServiceOption func(*RequestService)

// WithRequestEvents publishes lifecycle events after each commit.
func WithRequestEvents(pub eventPublisher) RequestServiceOption {
	return func(s *RequestService) {
		if pub != nil {
			s.events = pub
		}
	}
}

// WithRequestAudit records audit trail entries.
func WithRequestAudit(audit auditLogger) RequestServiceOption {
	return func(s *RequestService) {
		s.audit = audit
	}
}

// WithRequestMetrics counts transitions.
func WithRequestMetrics(metrics *MetricsService) RequestServiceOption {
	return func(s *RequestService) {
		s.metrics = metrics
	}
}

// WithRequestValidator overrides the payload validator.
func WithRequestValidator(v *validator.Validate) RequestServiceOption {
	return func(s *RequestService) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithRequestClock overrides the time source.
func WithRequestClock(now func() time.Time) RequestServiceOption {
	return func(s *RequestService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRequestService wires the lifecycle engine.
func NewRequestService(store requestStore, students studentLookup, programs programLookup, advisors advisorLookup, notifier notifier, policy ReviewPolicy, logger *zap.Logger, opts ...RequestServiceOption) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RequestService{
		store:     store,
		students:  students,
		programs:  programs,
		advisors:  advisors,
		notifier:  notifier,
		policy:    policy,
		events:    events.Nop{},
		validator: NewValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create files a new request for a student. The request starts out pending.
func (s *RequestService) Create(ctx context.Context, actor models.Actor, payload dto.RequestPayload) (*models.RequestRecord, error) {
	if actor.AdvisorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid request payload")
	}
	student, err := s.students.Refresh(ctx, payload.PID)
	if err != nil {
		return nil, err
	}

	req := &models.SubstitutionRequest{Requestor: actor.AdvisorID}
	applyPayload(req, payload, student)
	req.CreatedAt = s.now()
	if err := s.store.Insert(ctx, req); err != nil {
		return nil, appErrors.Internal(err, "failed to create request")
	}

	record := &models.RequestRecord{
		SubstitutionRequest: *req,
		Status:              models.StatusPending,
		StatusTime:          req.CreatedAt,
	}
	s.emitAudit(ctx, actor, models.AuditActionRequestCreate, req.ID, nil, req)
	s.publish(ctx, events.Event{
		Type:      events.TypeRequestCreated,
		RequestID: req.ID,
		ActorID:   actor.AdvisorID,
		Status:    string(models.StatusPending),
	})
	s.logger.Info("substitution request created", zap.String("request_id", req.ID), zap.String("actor_id", actor.AdvisorID))
	return record, nil
}

// Update overwrites the editable fields of an open request and re-queues it
// as pending with an empty reason. Edits never notify anyone.
func (s *RequestService) Update(ctx context.Context, actor models.Actor, id string, payload dto.RequestPayload) (*models.RequestRecord, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	canEdit, err := s.mayEdit(ctx, actor, record)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requestor or a reviewer may edit this request")
	}
	if !record.Status.IsOpen() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("request is %s and can no longer be edited", record.Status.Label()))
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid request payload")
	}
	student, err := s.students.Refresh(ctx, payload.PID)
	if err != nil {
		return nil, err
	}

	before := record.SubstitutionRequest
	updated := before
	applyPayload(&updated, payload, student)
	updated.UpdatedAt = s.now()
	if err := s.store.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request was decided while it was being edited")
		}
		return nil, appErrors.Internal(err, "failed to update request")
	}

	result := &models.RequestRecord{
		SubstitutionRequest: updated,
		Status:              models.StatusPending,
		StatusTime:          updated.UpdatedAt,
	}
	s.emitAudit(ctx, actor, models.AuditActionRequestUpdate, id, before, updated)
	s.publish(ctx, events.Event{
		Type:      events.TypeRequestUpdated,
		RequestID: id,
		ActorID:   actor.AdvisorID,
		Status:    string(models.StatusPending),
	})
	return result, nil
}

// Transition records a reviewer decision and notifies the student or the
// requestor. A notification failure leaves the decision in place and is
// reported through the result outcome.
func (s *RequestService) Transition(ctx context.Context, actor models.Actor, id string, payload dto.TransitionPayload) (*dto.TransitionResult, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	canDecide, err := s.mayDecide(ctx, actor, record)
	if err != nil {
		return nil, err
	}
	if !canDecide {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "your department may not review this request")
	}
	if !record.Status.IsOpen() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("request is already %s", record.Status.Label()))
	}

	target, err := models.ParseRequestStatus(payload.Status)
	if err != nil || !target.IsOutcome() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of: processed, not processed, sent back")
	}
	reason := strings.TrimSpace(payload.Reason)
	if target.RequiresReason() && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("a reason is required when marking a request %s", target.Label()))
	}

	now := s.now()
	if err := s.store.SetStatus(ctx, repository.SetStatusParams{
		RequestID:  id,
		Status:     target,
		Reason:     reason,
		ReviewedBy: actor.AdvisorID,
		Time:       now,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request was already decided by another reviewer")
		}
		return nil, appErrors.Internal(err, "failed to update request status")
	}

	previous := record.Status
	reviewer := actor.AdvisorID
	record.Status = target
	record.Reason = reason
	record.StatusTime = now
	record.ReviewedBy = &reviewer

	s.metrics.RecordTransition(target)
	s.emitAudit(ctx, actor, models.AuditActionRequestTransition, id,
		map[string]string{"status": string(previous)},
		map[string]string{"status": string(target), "reason": reason})
	s.publish(ctx, events.Event{
		Type:      events.TypeRequestStatusChanged,
		RequestID: id,
		ActorID:   actor.AdvisorID,
		Status:    string(target),
		Reason:    reason,
	})

	result := &dto.TransitionResult{Request: record, Outcome: dto.OutcomeNotified, Notified: true}
	if !s.dispatchDecision(ctx, record) {
		result.Outcome = dto.OutcomeNotificationFailed
		result.Notified = false
	}
	return result, nil
}

// Get returns a request with the actions the actor may take on it.
func (s *RequestService) Get(ctx context.Context, actor models.Actor, id string) (*dto.RequestDetail, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	canDecide, err := s.mayDecide(ctx, actor, record)
	if err != nil {
		return nil, err
	}
	owner := record.Requestor == actor.AdvisorID
	if !owner && !canDecide {
		scope, err := s.scopeFor(ctx, actor)
		if err != nil {
			return nil, err
		}
		if !scope.Allows(record.Major, record.Minor) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "request is outside your department's programs")
		}
	}

	focus, track := models.ParseAudit(record.UAudit)
	if focus == "" {
		focus, track = record.Focus(), record.Track()
	}
	detail := &dto.RequestDetail{
		Request:       record,
		Focus:         focus,
		Track:         track,
		AuditCategory: models.DisplayAudit(record.UAudit),
		Permissions: dto.RequestPermissions{
			CanEdit:       record.Status.IsOpen() && (owner || canDecide),
			CanTransition: record.Status.IsOpen() && canDecide,
		},
	}
	if advisor, err := s.advisors.FindByID(ctx, record.Requestor); err == nil {
		detail.RequestorName = advisor.FullName()
	}
	return detail, nil
}

// List returns requests in the given status, oldest first, limited to the
// actor's program scope. Listing pending also returns sent back requests.
func (s *RequestService) List(ctx context.Context, actor models.Actor, query dto.RequestQuery) ([]models.RequestSummary, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	summaries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	visible := make([]models.RequestSummary, 0, len(summaries))
	for _, summary := range summaries {
		if scope.Allows(summary.Major, summary.Minor) {
			visible = append(visible, summary)
		}
	}
	return visible, nil
}

func buildFilter(query dto.RequestQuery) (models.RequestFilter, error) {
	status := models.StatusPending
	if raw := strings.TrimSpace(query.Status); raw != "" {
		parsed, err := models.ParseRequestStatus(raw)
		if err != nil {
			return models.RequestFilter{}, appErrors.Clone(appErrors.ErrValidation, "status must be one of: pending, processed, not processed, sent back")
		}
		status = parsed
	}
	filter := models.RequestFilter{PID: strings.TrimSpace(query.PID)}
	switch status {
	case models.StatusPending:
		filter.Statuses = []models.RequestStatus{models.StatusPending, models.StatusSentBack}
	case models.StatusProcessed, models.StatusNotProcessed, models.StatusSentBack:
		filter.Statuses = []models.RequestStatus{status}
	}
	return filter, nil
}

func (s *RequestService) load(ctx context.Context, id string) (*models.RequestRecord, error) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no request found with ID %s", id))
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, appErrors.Internal(err, "failed to load request")
	}
	return record, nil
}

func (s *RequestService) scopeFor(ctx context.Context, actor models.Actor) (models.ProgramScope, error) {
	if s.policy.IsReviewer(actor) {
		return models.FullScope(), nil
	}
	programs, err := s.programs.ProgramsForDepartment(ctx, actor.DepartmentID)
	if err != nil {
		return models.ProgramScope{}, err
	}
	return models.NewProgramScope(programs), nil
}

func (s *RequestService) mayDecide(ctx context.Context, actor models.Actor, record *models.RequestRecord) (bool, error) {
	if s.policy.IsReviewer(actor) {
		return true, nil
	}
	if !s.policy.AllowsScopedReview() {
		return false, nil
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.Allows(record.Major, record.Minor), nil
}

func (s *RequestService) mayEdit(ctx context.Context, actor models.Actor, record *models.RequestRecord) (bool, error) {
	if record.Requestor == actor.AdvisorID {
		return true, nil
	}
	return s.mayDecide(ctx, actor, record)
}

// dispatchDecision sends the student notice for processed requests and the
// advisor notice otherwise.
func (s *RequestService) dispatchDecision(ctx context.Context, record *models.RequestRecord) bool {
	data := NotificationData{
		StudentName: record.Name,
		PID:         record.PID,
		RequestID:   record.ID,
		Status:      record.Status,
		Reason:      record.Reason,
	}

	switch record.Status {
	case models.StatusProcessed:
		data.RecipientName = record.Name
		return s.notifier.Notify(ctx, NoticeStudent, Recipient{Email: record.Email, Name: record.Name}, data)
	case models.StatusNotProcessed, models.StatusSentBack:
		advisor, err := s.advisors.FindByID(ctx, record.Requestor)
		if err != nil {
			s.logger.Error("could not find requestor to notify",
				zap.String("request_id", record.ID),
				zap.String("requestor", record.Requestor),
				zap.Error(err))
			return false
		}
		data.RecipientName = advisor.FirstName
		return s.notifier.Notify(ctx, NoticeAdvisor, Recipient{Email: advisor.Email, Name: advisor.FullName()}, data)
	case models.StatusPending:
		return true
	default:
		return false
	}
}

func applyPayload(req *models.SubstitutionRequest, payload dto.RequestPayload, student *models.StudentDirectoryEntry) {
	req.PID = payload.PID
	req.Name = student.DisplayName()
	req.Email = student.Email
	req.Year = strings.TrimSpace(payload.Year)
	req.Program = strings.TrimSpace(payload.Program)

	focus := payload.Focus
	if focus == "" {
		focus = models.FocusMajor
	}
	req.SetTrack(focus, strings.TrimSpace(payload.Track))

	req.OPrefix = strings.ToUpper(strings.TrimSpace(payload.OPrefix))
	req.ONumber = strings.TrimSpace(payload.ONumber)
	req.OTitle = strings.TrimSpace(payload.OTitle)
	if payload.OHours != nil {
		req.OHours = *payload.OHours
	}
	req.OGrade = strings.TrimSpace(payload.OGrade)
	req.OSemester = strings.TrimSpace(payload.OSemester)
	req.OType = strings.TrimSpace(payload.OType)

	req.UPrefix = strings.ToUpper(strings.TrimSpace(payload.UPrefix))
	req.UNumber = strings.TrimSpace(payload.UNumber)
	req.UOther = strings.TrimSpace(payload.UOther)
	req.RG = strings.TrimSpace(payload.RG)
	req.RQ = strings.TrimSpace(payload.RQ)
	req.LN = strings.TrimSpace(payload.LN)
	req.UHours = payload.UHours

	req.TransferRule = payload.TransferRule
	req.Comments = strings.TrimSpace(payload.Comments)
}

func (s *RequestService) publish(ctx context.Context, evt events.Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = s.now()
	}
	err := s.events.Publish(ctx, evt)
	s.metrics.RecordEvent(evt.Type, err)
	if err != nil {
		s.logger.Warn("failed to publish request event", zap.String("type", evt.Type), zap.String("request_id", evt.RequestID), zap.Error(err))
	}
}

func (s *RequestService) emitAudit(ctx context.Context, actor models.Actor, action, requestID string, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	actorID := actor.AdvisorID
	entry := &models.AuditLog{
		ActorID:    &actorID,
		Action:     action,
		Resource:   models.AuditResourceRequest,
		ResourceID: &requestID,
		IPAddress:  "system",
		UserAgent:  "request-service",
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
