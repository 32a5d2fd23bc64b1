package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cahsa-api/internal/dto"
	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/internal/repository"
	"github.com/noah-isme/cahsa-api/pkg/config"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
	"github.com/noah-isme/cahsa-api/pkg/events"
)

type fakeRequestStore struct {
	records      map[string]*models.RequestRecord
	summaries    []models.RequestSummary
	lastFilter   models.RequestFilter
	getErr       error
	gets         int
	insertErr    error
	setStatusErr error
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{records: make(map[string]*models.RequestRecord)}
}

func (f *fakeRequestStore) Get(ctx context.Context, id string) (*models.RequestRecord, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeRequestStore) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestSummary, error) {
	f.lastFilter = filter
	return f.summaries, nil
}

func (f *fakeRequestStore) Insert(ctx context.Context, req *models.SubstitutionRequest) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	f.records[req.ID] = &models.RequestRecord{SubstitutionRequest: *req, Status: models.StatusPending, StatusTime: req.CreatedAt}
	return nil
}

func (f *fakeRequestStore) Update(ctx context.Context, req *models.SubstitutionRequest) error {
	rec, ok := f.records[req.ID]
	if !ok || !rec.Status.IsOpen() {
		return sql.ErrNoRows
	}
	f.records[req.ID] = &models.RequestRecord{SubstitutionRequest: *req, Status: models.StatusPending, StatusTime: req.UpdatedAt}
	return nil
}

func (f *fakeRequestStore) SetStatus(ctx context.Context, params repository.SetStatusParams) error {
	if f.setStatusErr != nil {
		return f.setStatusErr
	}
	rec, ok := f.records[params.RequestID]
	if !ok || !rec.Status.IsOpen() {
		return sql.ErrNoRows
	}
	reviewer := params.ReviewedBy
	rec.Status = params.Status
	rec.Reason = params.Reason
	rec.StatusTime = params.Time
	rec.ReviewedBy = &reviewer
	return nil
}

type fakeStudents map[string]models.StudentDirectoryEntry

func (f fakeStudents) Refresh(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error) {
	entry, ok := f[pid]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no student found")
	}
	return &entry, nil
}

type fakePrograms map[int][]string

func (f fakePrograms) ProgramsForDepartment(ctx context.Context, departmentID int) ([]string, error) {
	return f[departmentID], nil
}

type fakeAdvisors map[string]models.Advisor

func (f fakeAdvisors) FindByID(ctx context.Context, id string) (*models.Advisor, error) {
	advisor, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &advisor, nil
}

type sentNotice struct {
	kind NotificationKind
	to   Recipient
	data NotificationData
}

type fakeNotifier struct {
	sent   []sentNotice
	result bool
}

func (f *fakeNotifier) Notify(ctx context.Context, kind NotificationKind, to Recipient, data NotificationData) bool {
	f.sent = append(f.sent, sentNotice{kind: kind, to: to, data: data})
	return f.result
}

type fakePublisher struct {
	events []events.Event
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, evt events.Event) error {
	f.events = append(f.events, evt)
	return f.err
}

type fakeAudit struct {
	entries []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.entries = append(f.entries, log)
	return nil
}

const (
	deptCentral = 12
	deptAnthro  = 31
)

var (
	reviewerA = models.Actor{AdvisorID: "adv-a", DepartmentID: deptCentral}
	advisorB  = models.Actor{AdvisorID: "adv-b", DepartmentID: deptAnthro}
	advisorC  = models.Actor{AdvisorID: "adv-c", DepartmentID: deptAnthro}
)

type requestFixture struct {
	svc       *RequestService
	store     *fakeRequestStore
	notifier  *fakeNotifier
	publisher *fakePublisher
	audit     *fakeAudit
	now       time.Time
}

func newRequestFixture(t *testing.T, review config.ReviewConfig) *requestFixture {
	t.Helper()
	fx := &requestFixture{
		store:     newFakeRequestStore(),
		notifier:  &fakeNotifier{result: true},
		publisher: &fakePublisher{},
		audit:     &fakeAudit{},
		now:       time.Date(2024, 9, 3, 14, 0, 0, 0, time.UTC),
	}
	students := fakeStudents{
		"1234567": {PID: "1234567", FirstName: "Jane", LastName: "Doe", Email: "jane@knights.ucf.edu"},
	}
	programs := fakePrograms{deptAnthro: {"Anthropology"}}
	advisors := fakeAdvisors{
		"adv-a": {ID: "adv-a", FirstName: "Ann", LastName: "Reviewer", Email: "ann@ucf.edu", DepartmentID: deptCentral},
		"adv-b": {ID: "adv-b", FirstName: "Bea", LastName: "Advisor", Email: "bea@ucf.edu", DepartmentID: deptAnthro},
	}
	fx.svc = NewRequestService(fx.store, students, programs, advisors, fx.notifier, NewReviewPolicy(review), nil,
		WithRequestEvents(fx.publisher),
		WithRequestAudit(fx.audit),
		WithRequestClock(func() time.Time { return fx.now }),
	)
	return fx
}

func intPtr(v int) *int { return &v }

func philosophyPayload() dto.RequestPayload {
	return dto.RequestPayload{
		PID:       "1234567",
		Year:      "Junior",
		Program:   "College of Arts and Humanities",
		Focus:     models.FocusMinor,
		Track:     "Philosophy",
		OPrefix:   "PHI",
		ONumber:   "2010",
		OHours:    intPtr(3),
		OSemester: "Fall 2024",
		UPrefix:   "PHI",
		UNumber:   "3300",
	}
}

func (fx *requestFixture) seed(status models.RequestStatus, reason string, owner string, major, minor string) string {
	id := uuid.NewString()
	req := models.SubstitutionRequest{
		ID:        id,
		Requestor: owner,
		PID:       "1234567",
		Name:      "Doe, Jane",
		Email:     "jane@knights.ucf.edu",
		Major:     major,
		Minor:     minor,
		OPrefix:   "ANT",
		ONumber:   "2000",
		OHours:    3,
		OSemester: "Spring 2024",
		CreatedAt: fx.now.Add(-time.Hour),
	}
	if minor != "" {
		req.SetTrack(models.FocusMinor, minor)
	} else {
		req.SetTrack(models.FocusMajor, major)
	}
	fx.store.records[id] = &models.RequestRecord{SubstitutionRequest: req, Status: status, Reason: reason, StatusTime: req.CreatedAt}
	return id
}

func TestRequestServiceCreatePhilosophyMinorScenario(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, advisorB, philosophyPayload())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	assert.Equal(t, "Philosophy", created.Minor)
	assert.Empty(t, created.Major)
	assert.Equal(t, "Minor - Philosophy", created.UAudit)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Empty(t, created.Reason)
	assert.Equal(t, "adv-b", created.Requestor)
	assert.Equal(t, "Doe, Jane", created.Name)
	assert.Equal(t, "jane@knights.ucf.edu", created.Email)

	detail, err := fx.svc.Get(ctx, advisorB, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SubstitutionRequest, detail.Request.SubstitutionRequest)
	assert.Equal(t, models.StatusPending, detail.Request.Status)
	assert.Equal(t, models.FocusMinor, detail.Focus)
	assert.Equal(t, "Philosophy", detail.Track)
	assert.True(t, detail.Permissions.CanEdit)
	assert.False(t, detail.Permissions.CanTransition)

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, events.TypeRequestCreated, fx.publisher.events[0].Type)
	require.Len(t, fx.audit.entries, 1)
	assert.Equal(t, models.AuditActionRequestCreate, fx.audit.entries[0].Action)
	assert.Empty(t, fx.notifier.sent)
}

func TestRequestServiceCreateMajorAudit(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	payload := philosophyPayload()
	payload.Focus = models.FocusMajor
	payload.Track = "Anthropology BA"

	created, err := fx.svc.Create(context.Background(), advisorB, payload)
	require.NoError(t, err)
	assert.Equal(t, "Major - Anthropology BA", created.UAudit)
	assert.Equal(t, "Anthropology BA", created.Major)
	assert.Empty(t, created.Minor)
}

func TestRequestServiceCreateValidation(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()

	cases := map[string]func(p *dto.RequestPayload){
		"missing pid":      func(p *dto.RequestPayload) { p.PID = "" },
		"short pid":        func(p *dto.RequestPayload) { p.PID = "12345" },
		"missing prefix":   func(p *dto.RequestPayload) { p.OPrefix = "" },
		"missing number":   func(p *dto.RequestPayload) { p.ONumber = "" },
		"missing term":     func(p *dto.RequestPayload) { p.OSemester = "" },
		"missing hours":    func(p *dto.RequestPayload) { p.OHours = nil },
		"negative hours":   func(p *dto.RequestPayload) { p.OHours = intPtr(-1) },
		"negative u-hours": func(p *dto.RequestPayload) { p.UHours = -2 },
		"bad focus":        func(p *dto.RequestPayload) { p.Focus = "certificate" },
		"missing track":    func(p *dto.RequestPayload) { p.Track = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			payload := philosophyPayload()
			mutate(&payload)
			_, err := fx.svc.Create(ctx, advisorB, payload)
			require.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
	assert.Empty(t, fx.store.records)
}

func TestRequestServiceCreateZeroHoursIsValid(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	payload := philosophyPayload()
	payload.OHours = intPtr(0)

	created, err := fx.svc.Create(context.Background(), advisorB, payload)
	require.NoError(t, err)
	assert.Equal(t, 0, created.OHours)
}

func TestRequestServiceCreateUnknownStudent(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	payload := philosophyPayload()
	payload.PID = "7654321"

	_, err := fx.svc.Create(context.Background(), advisorB, payload)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, fx.store.records)
}

func TestRequestServiceCreateStoreFailure(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	fx.store.insertErr = errors.New("connection reset")

	_, err := fx.svc.Create(context.Background(), advisorB, philosophyPayload())
	require.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, fx.publisher.events)
}

func TestRequestServiceUpdateResetsSentBackWithoutNotification(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()
	id := fx.seed(models.StatusSentBack, "Missing grade", "adv-b", "", "Philosophy")

	payload := philosophyPayload()
	payload.OGrade = "A"
	updated, err := fx.svc.Update(ctx, advisorB, id, payload)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Empty(t, updated.Reason)
	assert.Equal(t, "A", updated.OGrade)
	assert.Equal(t, "adv-b", updated.Requestor)

	stored, err := fx.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, stored.Reason)
	assert.Empty(t, fx.notifier.sent)
	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, events.TypeRequestUpdated, fx.publisher.events[0].Type)
}

func TestRequestServiceUpdateByReviewerKeepsRequestor(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	id := fx.seed(models.StatusPending, "", "adv-b", "Anthropology BA", "")

	updated, err := fx.svc.Update(context.Background(), reviewerA, id, philosophyPayload())
	require.NoError(t, err)
	assert.Equal(t, "adv-b", updated.Requestor)
}

func TestRequestServiceUpdateRules(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()

	_, err := fx.svc.Update(ctx, advisorB, uuid.NewString(), philosophyPayload())
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	processed := fx.seed(models.StatusProcessed, "", "adv-b", "", "Philosophy")
	_, err = fx.svc.Update(ctx, advisorB, processed, philosophyPayload())
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	pending := fx.seed(models.StatusPending, "", "adv-b", "", "Philosophy")
	_, err = fx.svc.Update(ctx, advisorC, pending, philosophyPayload())
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	bad := philosophyPayload()
	bad.OSemester = ""
	_, err = fx.svc.Update(ctx, advisorB, pending, bad)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRequestServiceMalformedIDIsNotFound(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	fx.store.getErr = &pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"}
	ctx := context.Background()

	_, err := fx.svc.Get(ctx, reviewerA, "not-a-uuid")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	_, err = fx.svc.Update(ctx, advisorB, "abc", philosophyPayload())
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = fx.svc.Transition(ctx, reviewerA, "abc", dto.TransitionPayload{Status: "processed"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, fx.store.gets)
}

func TestRequestServiceTransitionSentBackNotifiesRequestor(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()
	id := fx.seed(models.StatusPending, "", "adv-b", "", "Philosophy")

	result, err := fx.svc.Transition(ctx, reviewerA, id, dto.TransitionPayload{Status: "Sent Back", Reason: "Missing grade"})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeNotified, result.Outcome)
	assert.True(t, result.Notified)
	assert.Equal(t, models.StatusSentBack, result.Request.Status)
	assert.Equal(t, "Missing grade", result.Request.Reason)

	stored, err := fx.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSentBack, stored.Status)
	assert.Equal(t, "Missing grade", stored.Reason)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, "adv-a", *stored.ReviewedBy)

	require.Len(t, fx.notifier.sent, 1)
	notice := fx.notifier.sent[0]
	assert.Equal(t, NoticeAdvisor, notice.kind)
	assert.Equal(t, Recipient{Email: "bea@ucf.edu", Name: "Bea Advisor"}, notice.to)
	assert.Equal(t, "Bea", notice.data.RecipientName)
	assert.Equal(t, "Missing grade", notice.data.Reason)
	assert.True(t, notice.data.SentBack())

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, events.TypeRequestStatusChanged, fx.publisher.events[0].Type)
	assert.Equal(t, "sent back", fx.publisher.events[0].Status)
}

func TestRequestServiceTransitionProcessedNotifiesStudentWithoutReason(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	id := fx.seed(models.StatusSentBack, "Missing grade", "adv-b", "", "Philosophy")

	result, err := fx.svc.Transition(context.Background(), reviewerA, id, dto.TransitionPayload{Status: "processed"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, result.Request.Status)
	assert.Empty(t, result.Request.Reason)

	require.Len(t, fx.notifier.sent, 1)
	assert.Equal(t, NoticeStudent, fx.notifier.sent[0].kind)
	assert.Equal(t, "jane@knights.ucf.edu", fx.notifier.sent[0].to.Email)
}

func TestRequestServiceTransitionRequiresReasonUnlessProcessed(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()
	id := fx.seed(models.StatusPending, "", "adv-b", "", "Philosophy")

	for _, status := range []string{"not processed", "sent back"} {
		_, err := fx.svc.Transition(ctx, reviewerA, id, dto.TransitionPayload{Status: status, Reason: "   "})
		require.ErrorIs(t, err, appErrors.ErrValidation, status)
	}
	stored, _ := fx.store.Get(ctx, id)
	assert.Equal(t, models.StatusPending, stored.Status)

	_, err := fx.svc.Transition(ctx, reviewerA, id, dto.TransitionPayload{Status: "pending", Reason: "x"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = fx.svc.Transition(ctx, reviewerA, id, dto.TransitionPayload{Status: "approved", Reason: "x"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRequestServiceTransitionFromFinalStatesRejected(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()

	for _, final := range []models.RequestStatus{models.StatusProcessed, models.StatusNotProcessed} {
		id := fx.seed(final, "earlier decision", "adv-b", "", "Philosophy")
		for _, target := range []string{"processed", "not processed", "sent back"} {
			_, err := fx.svc.Transition(ctx, reviewerA, id, dto.TransitionPayload{Status: target, Reason: "again"})
			require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
		}
		stored, err := fx.store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, final, stored.Status)
		assert.Equal(t, "earlier decision", stored.Reason)
	}
	assert.Empty(t, fx.notifier.sent)
}

func TestRequestServiceTransitionNotificationFailureIsDegraded(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	fx.notifier.result = false
	ctx := context.Background()
	id := fx.seed(models.StatusPending, "", "adv-b", "", "Philosophy")

	result, err := fx.svc.Transition(ctx, reviewerA, id, dto.TransitionPayload{Status: "not processed", Reason: "Not equivalent"})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeNotificationFailed, result.Outcome)
	assert.False(t, result.Notified)

	stored, err := fx.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotProcessed, stored.Status)
	assert.Equal(t, "Not equivalent", stored.Reason)
}

func TestRequestServiceTransitionMissingRequestorIsDegraded(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	id := fx.seed(models.StatusPending, "", "adv-gone", "", "Philosophy")

	result, err := fx.svc.Transition(context.Background(), reviewerA, id, dto.TransitionPayload{Status: "sent back", Reason: "Missing grade"})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeNotificationFailed, result.Outcome)
	assert.Empty(t, fx.notifier.sent)
}

func TestRequestServiceTransitionAuthorization(t *testing.T) {
	ctx := context.Background()

	fx := newRequestFixture(t, config.ReviewConfig{})
	id := fx.seed(models.StatusPending, "", "adv-b", "Anthropology BA", "")
	_, err := fx.svc.Transition(ctx, advisorB, id, dto.TransitionPayload{Status: "processed"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = fx.svc.Transition(ctx, reviewerA, uuid.NewString(), dto.TransitionPayload{Status: "processed"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	scoped := newRequestFixture(t, config.ReviewConfig{AllowScopedReviewers: true})
	inScope := scoped.seed(models.StatusPending, "", "adv-x", "Anthropology BA", "")
	outOfScope := scoped.seed(models.StatusPending, "", "adv-x", "History BA", "")
	_, err = scoped.svc.Transition(ctx, advisorC, inScope, dto.TransitionPayload{Status: "processed"})
	require.NoError(t, err)
	_, err = scoped.svc.Transition(ctx, advisorC, outOfScope, dto.TransitionPayload{Status: "processed"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestRequestServiceTransitionLosesRaceToAnotherReviewer(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	id := fx.seed(models.StatusPending, "", "adv-b", "", "Philosophy")
	fx.store.setStatusErr = sql.ErrNoRows

	_, err := fx.svc.Transition(context.Background(), reviewerA, id, dto.TransitionPayload{Status: "processed"})
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Empty(t, fx.notifier.sent)
}

func TestRequestServiceTransitionStoreFailureIsHard(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	id := fx.seed(models.StatusPending, "", "adv-b", "", "Philosophy")
	fx.store.setStatusErr = errors.New("deadlock")

	_, err := fx.svc.Transition(context.Background(), reviewerA, id, dto.TransitionPayload{Status: "processed"})
	require.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, fx.notifier.sent)
	assert.Empty(t, fx.publisher.events)
}

func TestRequestServiceListScopesByDepartment(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	fx.store.summaries = []models.RequestSummary{
		{ID: "1", Major: "Anthropology BA"},
		{ID: "2", Major: "History BA"},
		{ID: "3", Major: "", Minor: "Philosophy"},
		{ID: "4", Major: "History BA", Minor: "Anthropology Minor"},
	}
	ctx := context.Background()

	scoped, err := fx.svc.List(ctx, advisorB, dto.RequestQuery{})
	require.NoError(t, err)
	ids := make([]string, 0, len(scoped))
	for _, s := range scoped {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
	assert.Equal(t, []models.RequestStatus{models.StatusPending, models.StatusSentBack}, fx.store.lastFilter.Statuses)

	all, err := fx.svc.List(ctx, reviewerA, dto.RequestQuery{Status: "Processed", PID: "1234567"})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, []models.RequestStatus{models.StatusProcessed}, fx.store.lastFilter.Statuses)
	assert.Equal(t, "1234567", fx.store.lastFilter.PID)

	_, err = fx.svc.List(ctx, reviewerA, dto.RequestQuery{Status: "archived"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRequestServiceGetPermissionsAndScope(t *testing.T) {
	fx := newRequestFixture(t, config.ReviewConfig{})
	ctx := context.Background()
	pending := fx.seed(models.StatusPending, "", "adv-b", "History BA", "")
	processed := fx.seed(models.StatusProcessed, "", "adv-b", "Anthropology BA", "")

	detail, err := fx.svc.Get(ctx, reviewerA, pending)
	require.NoError(t, err)
	assert.True(t, detail.Permissions.CanEdit)
	assert.True(t, detail.Permissions.CanTransition)
	assert.Equal(t, "Bea Advisor", detail.RequestorName)

	detail, err = fx.svc.Get(ctx, reviewerA, processed)
	require.NoError(t, err)
	assert.False(t, detail.Permissions.CanEdit)
	assert.False(t, detail.Permissions.CanTransition)

	detail, err = fx.svc.Get(ctx, advisorC, processed)
	require.NoError(t, err)
	assert.False(t, detail.Permissions.CanEdit)

	_, err = fx.svc.Get(ctx, advisorC, pending)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
