// Package service runs the document workflow: creation, draft edits, lifecycle
// actions, tracking lookups and the read models built over visible documents.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docutrack/internal/classifier"
	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/lifecycle"
	docmetrics "docutrack/internal/document/metrics"
	"docutrack/internal/document/models"
	"docutrack/internal/document/visibility"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/platform/tx"
	"docutrack/pkg/requestcontext"
)

const (
	tracerName = "docutrack/internal/document/service"

	// classifyMinLength is the description length above which the classifier
	// is consulted.
	classifyMinLength   = 20
	trackingAttempts    = 5
	trackingSerialSpace = 100000
	recentLimit         = 5
)

type Store interface {
	List(ctx context.Context) ([]*models.Document, error)
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Replace(ctx context.Context, doc *models.Document) error
}

type OfficeDirectory interface {
	OfficeExists(ctx context.Context, name string) (bool, error)
	OfficeNames(ctx context.Context) ([]string, error)
}

type Classifier interface {
	Classify(ctx context.Context, description string) (classifier.Classification, error)
}

// Notifier fans out notifications for a committed transition.
type Notifier interface {
	Notify(ctx context.Context, updated *models.Document, previous models.Status, actor *dirmodels.User) error
}

type Service struct {
	store      Store
	offices    OfficeDirectory
	engine     *lifecycle.Engine
	classifier Classifier
	notifier   Notifier
	tx         tx.Runner
	logger     *slog.Logger
	metrics    *docmetrics.Metrics
	tracer     trace.Tracer
	serial     func() int
	newID      func() id.DocumentID
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *docmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

// WithClassifier enables category and priority suggestions on creation.
func WithClassifier(c Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithEngine(e *lifecycle.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithTrackingSerials overrides the serial source for tracking numbers.
func WithTrackingSerials(fn func() int) Option {
	return func(s *Service) {
		if fn != nil {
			s.serial = fn
		}
	}
}

func WithDocumentIDs(fn func() id.DocumentID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(store Store, offices OfficeDirectory, opts ...Option) *Service {
	s := &Service{
		store:   store,
		offices: offices,
		engine:  lifecycle.NewEngine(lifecycle.DefaultHubOffice),
		tx:      tx.NewLockRunner(),
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		serial:  func() int { return rand.IntN(trackingSerialSpace) },
		newID:   func() id.DocumentID { return id.DocumentID(uuid.New()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Detail is a document together with the actions offered to the caller.
type Detail struct {
	Document *models.Document   `json:"document"`
	Actions  []lifecycle.Action `json:"actions"`
}

// TrackResult is the outcome of a tracking number lookup.
type TrackResult struct {
	Document     *models.Document   `json:"document"`
	Actions      []lifecycle.Action `json:"actions"`
	AutoReceived bool               `json:"auto_received"`
}

type Dashboard struct {
	ForApproval    int                `json:"for_approval"`
	Received       int                `json:"received"`
	CompletedToday int                `json:"completed_today"`
	Drafts         int                `json:"drafts"`
	Recent         []*models.Document `json:"recent"`
}

// ActivityEntry is one history entry with the document it belongs to.
type ActivityEntry struct {
	DocumentID     id.DocumentID       `json:"document_id"`
	TrackingNumber string              `json:"tracking_number"`
	Title          string              `json:"title"`
	Entry          models.HistoryEntry `json:"entry"`
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
	}
	span.End()
}

func requireActor(actor *dirmodels.User) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "a session is required")
	}
	return nil
}

func wrapFindErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
}

func wrapReplaceErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
}

func (s *Service) requireOffice(ctx context.Context, name string, code dErrors.Code) error {
	ok, err := s.offices.OfficeExists(ctx, name)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up office")
	}
	if !ok {
		return dErrors.New(code, "office "+name+" does not exist")
	}
	return nil
}

// Create stores a new draft sent by actor. Category and priority left unset in
// the request are filled from the classifier, or from the defaults when the
// classifier is absent or unavailable.
func (s *Service) Create(ctx context.Context, actor *dirmodels.User, req *models.CreateDocumentRequest) (doc *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.Create")
	defer func() { endSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireOffice(ctx, req.RecipientOffice, dErrors.CodeValidation); err != nil {
		return nil, err
	}

	draft := s.classify(ctx, req.Draft())
	now := requestcontext.Now(ctx)
	entryID := s.engine.NewEntryID(now)

	for attempt := 1; attempt <= trackingAttempts; attempt++ {
		trackingNumber := models.FormatTrackingNumber(now, s.serial())
		doc, err = models.NewDocument(s.newID(), trackingNumber, draft, actor, entryID, now)
		if err != nil {
			return nil, err
		}
		err = s.store.Create(ctx, doc)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
		}
		s.logger.WarnContext(ctx, "tracking number collision",
			"tracking_number", trackingNumber,
			"attempt", attempt,
		)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "could not allocate a unique tracking number")
	}

	span.SetAttributes(
		attribute.String("document.id", doc.ID.String()),
		attribute.String("document.tracking_number", doc.TrackingNumber),
	)
	s.metrics.IncrementDocumentsCreated()
	s.logger.InfoContext(ctx, "document created",
		"document_id", doc.ID.String(),
		"tracking_number", doc.TrackingNumber,
		"recipient_office", doc.RecipientOffice,
		"category", doc.Category,
		"priority", string(doc.Priority),
		"request_id", requestcontext.RequestID(ctx),
	)
	return doc, nil
}

func (s *Service) classify(ctx context.Context, d models.Draft) models.Draft {
	if d.Category != "" && d.Priority != "" {
		return d
	}
	if s.classifier == nil || utf8.RuneCountInString(strings.TrimSpace(d.Description)) <= classifyMinLength {
		return d
	}
	suggestion, err := s.classifier.Classify(ctx, d.Description)
	if err != nil {
		s.metrics.IncrementClassifierFallback()
		s.logger.WarnContext(ctx, "classifier unavailable, using defaults",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return d
	}
	if d.Category == "" {
		d.Category = suggestion.Category
	}
	if d.Priority == "" {
		d.Priority = suggestion.Priority
	}
	return d
}

// UpdateDraft edits a draft in place. Only the sender may edit, and only while
// the document is a Draft. No history entry is added.
func (s *Service) UpdateDraft(ctx context.Context, actor *dirmodels.User, docID id.DocumentID, req *models.UpdateDraftRequest) (updated *models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.UpdateDraft", attribute.String("document.id", docID.String()))
	defer func() { endSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.store.FindByID(txCtx, docID)
		if err != nil {
			return wrapFindErr(err)
		}
		if !visibility.CanSee(doc, actor) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		if err := doc.CanEditDraft(actor.ID); err != nil {
			return err
		}
		if req.RecipientOffice != doc.RecipientOffice {
			if err := s.requireOffice(txCtx, req.RecipientOffice, dErrors.CodeValidation); err != nil {
				return err
			}
		}
		if err := doc.ApplyDraftEdit(req.Draft()); err != nil {
			return err
		}
		if err := s.store.Replace(txCtx, doc); err != nil {
			return wrapReplaceErr(err)
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns a visible document and the actions offered to actor.
func (s *Service) Get(ctx context.Context, actor *dirmodels.User, docID id.DocumentID) (detail *Detail, err error) {
	ctx, span := s.startSpan(ctx, "document.Get", attribute.String("document.id", docID.String()))
	defer func() { endSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	if !visibility.CanSee(doc, actor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return &Detail{Document: doc, Actions: s.available(doc, actor)}, nil
}

func (s *Service) available(doc *models.Document, actor *dirmodels.User) []lifecycle.Action {
	actions := s.engine.Available(doc, actor)
	if actions == nil {
		return []lifecycle.Action{}
	}
	return actions
}

// List returns the documents visible to actor that match the query, most
// recently updated first.
func (s *Service) List(ctx context.Context, actor *dirmodels.User, q models.ListQuery) (docs []*models.Document, err error) {
	ctx, span := s.startSpan(ctx, "document.List")
	defer func() { endSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	docs = visibility.Filter(all, actor, q.Query)
	sortByUpdated(docs)
	span.SetAttributes(attribute.Int("document.count", len(docs)))
	return docs, nil
}

func sortByUpdated(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
}

// PerformAction applies a lifecycle action and persists the result. The find,
// apply and replace run in one unit of work; notifications are dispatched
// after commit and their failure does not undo the transition.
//
// A document the actor can neither see nor act on is reported as not found.
func (s *Service) PerformAction(ctx context.Context, actor *dirmodels.User, docID id.DocumentID, req *models.ActionRequest) (detail *Detail, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "document.PerformAction", attribute.String("document.id", docID.String()))
	defer func() { endSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	action, err := lifecycle.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("document.action", string(action)))

	if action.RequiresTarget() {
		if err := lifecycle.ValidateTarget(req.TargetOffice, actor); err != nil {
			return nil, err
		}
		if err := s.requireOffice(ctx, req.TargetOffice, dErrors.CodeInvalidTarget); err != nil {
			return nil, err
		}
	}

	var (
		next     *models.Document
		previous models.Status
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.store.FindByID(txCtx, docID)
		if err != nil {
			return wrapFindErr(err)
		}
		if !visibility.CanSee(doc, actor) && !s.engine.Offers(doc, actor, action) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		previous = doc.Status
		next, err = s.engine.Apply(doc, actor, lifecycle.Request{
			Action:       action,
			TargetOffice: req.TargetOffice,
			Remarks:      req.Remarks,
			At:           requestcontext.Now(txCtx),
		})
		if err != nil {
			s.metrics.IncrementRejected(string(action))
			return err
		}
		if err := s.store.Replace(txCtx, next); err != nil {
			return wrapReplaceErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveAction(start)

	s.committed(ctx, next, previous, actor, action)
	return &Detail{Document: next, Actions: s.available(next, actor)}, nil
}

func (s *Service) committed(ctx context.Context, doc *models.Document, previous models.Status, actor *dirmodels.User, action lifecycle.Action) {
	s.metrics.IncrementTransition(string(action))
	s.logger.InfoContext(ctx, "document transitioned",
		"document_id", doc.ID.String(),
		"action", string(action),
		"from", string(previous),
		"to", string(doc.Status),
		"recipient_office", doc.RecipientOffice,
		"actor_id", actor.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, doc, previous, actor); err != nil {
		s.metrics.IncrementNotifyFailure()
		s.logger.ErrorContext(ctx, "failed to dispatch notifications",
			"document_id", doc.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Track looks a document up by its exact tracking number. When the actor's
// office is the recipient of a Sent document, the lookup receives it. Guests
// (nil actor) never trigger a transition.
func (s *Service) Track(ctx context.Context, actor *dirmodels.User, trackingNumber string) (result *TrackResult, err error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	ctx, span := s.startSpan(ctx, "document.Track", attribute.String("document.tracking_number", trackingNumber))
	defer func() { endSpan(span, err) }()

	if trackingNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tracking number is required")
	}
	doc, err := s.store.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementTrackingLookup("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "no document with tracking number "+trackingNumber)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up tracking number")
	}

	if !s.shouldAutoReceive(doc, actor) {
		s.metrics.IncrementTrackingLookup("found")
		return &TrackResult{Document: doc, Actions: s.available(doc, actor)}, nil
	}

	var (
		next     *models.Document
		previous models.Status
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.store.FindByID(txCtx, doc.ID)
		if err != nil {
			return wrapFindErr(err)
		}
		if !s.shouldAutoReceive(current, actor) {
			next = current
			return nil
		}
		previous = current.Status
		next, err = s.engine.Apply(current, actor, lifecycle.Request{
			Action:       lifecycle.ActionReceive,
			SystemRemark: lifecycle.TrackingReceiveRemark(current),
			At:           requestcontext.Now(txCtx),
		})
		if err != nil {
			return err
		}
		if err := s.store.Replace(txCtx, next); err != nil {
			return wrapReplaceErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous == "" {
		s.metrics.IncrementTrackingLookup("found")
		return &TrackResult{Document: next, Actions: s.available(next, actor)}, nil
	}

	span.SetAttributes(attribute.Bool("document.auto_received", true))
	s.metrics.IncrementTrackingLookup("auto_received")
	s.committed(ctx, next, previous, actor, lifecycle.ActionReceive)
	return &TrackResult{Document: next, Actions: s.available(next, actor), AutoReceived: true}, nil
}

func (s *Service) shouldAutoReceive(doc *models.Document, actor *dirmodels.User) bool {
	return actor != nil &&
		doc.Status == models.StatusSent &&
		doc.RecipientOffice == actor.Office &&
		s.engine.Offers(doc, actor, lifecycle.ActionReceive)
}

// Dashboard summarizes the documents visible to actor.
func (s *Service) Dashboard(ctx context.Context, actor *dirmodels.User) (dash *Dashboard, err error) {
	ctx, span := s.startSpan(ctx, "document.Dashboard")
	defer func() { endSpan(span, err) }()

	docs, err := s.List(ctx, actor, models.ListQuery{})
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	dash = &Dashboard{Recent: []*models.Document{}}
	for _, doc := range docs {
		switch doc.Status {
		case models.StatusReceived:
			dash.Received++
			if doc.RecipientOffice == actor.Office {
				dash.ForApproval++
			}
		case models.StatusCompleted:
			if sameDay(doc.UpdatedAt, now) {
				dash.CompletedToday++
			}
		case models.StatusDraft:
			if doc.IsSentBy(actor.ID) {
				dash.Drafts++
			}
		}
	}
	if len(docs) > recentLimit {
		docs = docs[:recentLimit]
	}
	dash.Recent = append(dash.Recent, docs...)
	return dash, nil
}

func sameDay(t, now time.Time) bool {
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ActivityLog lists every history entry across all documents, newest first.
func (s *Service) ActivityLog(ctx context.Context, actor *dirmodels.User) (entries []ActivityEntry, err error) {
	ctx, span := s.startSpan(ctx, "document.ActivityLog")
	defer func() { endSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "super admin role required")
	}
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	entries = []ActivityEntry{}
	for _, doc := range docs {
		for _, e := range doc.History.Entries() {
			entries = append(entries, ActivityEntry{
				DocumentID:     doc.ID,
				TrackingNumber: doc.TrackingNumber,
				Title:          doc.Title,
				Entry:          e,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Entry.Timestamp.After(entries[j].Entry.Timestamp)
	})
	return entries, nil
}

// ForwardTargets lists the offices a visible document may be forwarded to.
func (s *Service) ForwardTargets(ctx context.Context, actor *dirmodels.User, docID id.DocumentID) ([]string, error) {
	if _, err := s.Get(ctx, actor, docID); err != nil {
		return nil, err
	}
	offices, err := s.offices.OfficeNames(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list offices")
	}
	return lifecycle.ForwardTargets(offices, actor), nil
}
