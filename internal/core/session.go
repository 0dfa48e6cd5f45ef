package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"estatecore/pkg/domain"
)

// IntentKind classifies a requested mutation.
type IntentKind string

// Mutation intent kinds.
const (
	IntentFieldUpdate      IntentKind = "field_update"
	IntentStatusTransition IntentKind = "status_transition"
	IntentDelete           IntentKind = "delete"
)

// Intent describes one requested mutation on a record. Status transitions
// carry the user action; the session resolves the target status through the
// state machine. Field updates carry the patch applied both optimistically
// and by the backend.
type Intent[T domain.Record[T]] struct {
	Kind   IntentKind
	Action domain.ActionKind
	Patch  Patch[T]
}

// FieldUpdate builds a field-edit intent.
func FieldUpdate[T domain.Record[T]](patch Patch[T]) Intent[T] {
	return Intent[T]{Kind: IntentFieldUpdate, Patch: patch}
}

// StatusTransition builds a status-change intent for a user action.
func StatusTransition[T domain.Record[T]](action domain.ActionKind) Intent[T] {
	return Intent[T]{Kind: IntentStatusTransition, Action: action}
}

// Delete builds a removal intent.
func Delete[T domain.Record[T]]() Intent[T] {
	return Intent[T]{Kind: IntentDelete, Action: domain.ActionDelete}
}

// mutationRecord tracks one in-flight mutation: the pre-mutation snapshot
// and, for deletes, the slice index the record must return to on rollback.
type mutationRecord[T domain.Record[T]] struct {
	snapshot T
	index    int
	kind     IntentKind
}

// Pending reports the resolution of an accepted mutation. Done closes once
// the backend call confirmed or rolled back.
type Pending struct {
	done chan struct{}
	err  error
}

// Done returns a channel closed on resolution.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the mutation resolves or ctx is cancelled, returning
// the backend error when the mutation rolled back.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return p.err
	}
}

// Session owns the in-memory record list for one view and coordinates every
// mutation against the backend: optimistic apply first, then confirm or
// roll back when the call resolves, with at most one mutation in flight per
// record id. Ordering stays a pure function over the current list, so the
// UI sees the optimistic state on its very next Ordered call.
type Session[T domain.Record[T]] struct {
	mu        sync.Mutex
	entity    domain.EntityType
	backend   Backend[T]
	registry  *Registry[T]
	policy    domain.StatusPolicy
	records   []T
	pending   map[string]*mutationRecord[T]
	announcer *Announcer
	logger    Logger
	metrics   MetricsRecorder
	clock     Clock
	closed    bool
}

type settings struct {
	logger    Logger
	clock     Clock
	metrics   MetricsRecorder
	announcer *Announcer
}

// Option customises a session at construction time.
type Option func(*settings)

// WithLogger injects a structured logger.
func WithLogger(l Logger) Option { return func(s *settings) { s.logger = l } }

// WithClock injects a clock, mainly for deterministic tests.
func WithClock(c Clock) Option { return func(s *settings) { s.clock = c } }

// WithMetrics injects a mutation metrics recorder.
func WithMetrics(m MetricsRecorder) Option { return func(s *settings) { s.metrics = m } }

// WithAnnouncer replaces the default announcement throttle.
func WithAnnouncer(a *Announcer) Option { return func(s *settings) { s.announcer = a } }

func newSettings(opts ...Option) settings {
	s := settings{
		logger:  noopLogger{},
		clock:   systemClock{},
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.announcer == nil {
		s.announcer = NewAnnouncer(DefaultAnnounceDelay)
	}
	return s
}

// NewSession constructs a session over an arbitrary backend and registry.
// Most callers want NewOwnerSession or NewDocumentSession.
func NewSession[T domain.Record[T]](entity domain.EntityType, backend Backend[T], registry *Registry[T], policy domain.StatusPolicy, opts ...Option) *Session[T] {
	return newSessionWith(entity, backend, registry, policy, newSettings(opts...))
}

func newSessionWith[T domain.Record[T]](entity domain.EntityType, backend Backend[T], registry *Registry[T], policy domain.StatusPolicy, cfg settings) *Session[T] {
	return &Session[T]{
		entity:    entity,
		backend:   backend,
		registry:  registry,
		policy:    policy,
		pending:   make(map[string]*mutationRecord[T]),
		announcer: cfg.announcer,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		clock:     cfg.clock,
	}
}

// NewOwnerSession constructs a session managing product owner records.
func NewOwnerSession(store domain.Store, opts ...Option) *Session[domain.ProductOwner] {
	cfg := newSettings(opts...)
	return newSessionWith(domain.EntityProductOwner, OwnerBackend(store), OwnerRegistry(cfg.clock.Now), domain.OwnerStatusPolicy, cfg)
}

// NewDocumentSession constructs a session managing legal document records.
func NewDocumentSession(store domain.Store, opts ...Option) *Session[domain.LegalDocument] {
	cfg := newSettings(opts...)
	return newSessionWith(domain.EntityLegalDocument, DocumentBackend(store), DocumentRegistry(), domain.DocumentStatusPolicy, cfg)
}

// Load refetches the record set wholesale. It is rejected while any
// mutation is pending, since a refetch would orphan the pending snapshots.
func (s *Session[T]) Load(ctx context.Context, estateID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.NewError(domain.KindConflict, s.op("load"), "session is closed")
	}
	if len(s.pending) > 0 {
		s.mu.Unlock()
		return domain.NewError(domain.KindConflict, s.op("load"), "mutations still in flight")
	}
	s.mu.Unlock()

	records, err := s.backend.List(ctx, estateID)
	if err != nil {
		s.logger.Error("load failed", "entity", s.entity, "estate", estateID, "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.records = records
	s.logger.Debug("records loaded", "entity", s.entity, "estate", estateID, "count", len(records))
	return nil
}

// Create adds a record through the backend and appends it to the set. There
// is no optimistic phase: the id is server-assigned.
func (s *Session[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return zero, domain.NewError(domain.KindConflict, s.op("create"), "session is closed")
	}
	s.mu.Unlock()

	created, err := s.backend.Create(ctx, record)
	if err != nil {
		s.announcer.Announce(fmt.Sprintf("Could not add %s. %s", s.label(), domain.UserMessage(err)))
		return zero, err
	}
	s.mu.Lock()
	if !s.closed {
		s.records = append(s.records, created.Clone())
	}
	s.mu.Unlock()
	s.announcer.Announce(fmt.Sprintf("%s added.", s.titleLabel()))
	return created, nil
}

// Begin accepts a mutation for the record: it validates synchronously,
// snapshots, applies the intended outcome to the local set, and starts the
// backend call. ConflictError, NotFoundError, and InvalidTransitionError
// are rejected before any state is touched.
func (s *Session[T]) Begin(ctx context.Context, id string, intent Intent[T]) (*Pending, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.NewError(domain.KindConflict, s.op("begin"), "session is closed")
	}
	if _, inFlight := s.pending[id]; inFlight {
		s.mu.Unlock()
		return nil, domain.NewError(domain.KindConflict, s.op("begin"), "a mutation is already pending for this record")
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, domain.NewError(domain.KindNotFound, s.op("begin"), "record is not in the current set")
	}
	current := s.records[idx]

	var target domain.Status
	switch intent.Kind {
	case IntentStatusTransition:
		t, ok := domain.TransitionTarget(s.entity, current.RecordStatus(), intent.Action)
		if !ok {
			s.mu.Unlock()
			return nil, domain.NewError(domain.KindInvalidTransition, s.op("begin"),
				fmt.Sprintf("action %s is not legal for status %s", intent.Action, current.RecordStatus()))
		}
		target = t
	case IntentFieldUpdate:
		if intent.Patch == nil {
			s.mu.Unlock()
			return nil, domain.NewError(domain.KindValidation, s.op("begin"), "field update requires a patch")
		}
		if !domain.ActionAllowed(s.entity, current.RecordStatus(), domain.ActionUpdateDetails) {
			s.mu.Unlock()
			return nil, domain.NewError(domain.KindInvalidTransition, s.op("begin"),
				fmt.Sprintf("record in status %s is read-only", current.RecordStatus()))
		}
	case IntentDelete:
		// Deletion is legal from every state.
	default:
		s.mu.Unlock()
		return nil, domain.NewError(domain.KindValidation, s.op("begin"), fmt.Sprintf("unknown intent kind %q", intent.Kind))
	}

	snapshot := current.Clone()
	switch intent.Kind {
	case IntentStatusTransition:
		s.records[idx] = current.Clone().WithStatus(target)
	case IntentFieldUpdate:
		mutated := current.Clone()
		intent.Patch.Apply(&mutated)
		s.records[idx] = mutated
	case IntentDelete:
		s.records = append(s.records[:idx], s.records[idx+1:]...)
	}
	s.pending[id] = &mutationRecord[T]{snapshot: snapshot, index: idx, kind: intent.Kind}
	start := s.clock.Now()
	s.logger.Debug("mutation accepted", "entity", s.entity, "id", id, "kind", intent.Kind)
	s.mu.Unlock()

	p := &Pending{done: make(chan struct{})}
	go s.resolve(ctx, id, intent, target, p, start)
	return p, nil
}

// resolve runs the backend call and confirms or rolls back under the lock.
func (s *Session[T]) resolve(ctx context.Context, id string, intent Intent[T], target domain.Status, p *Pending, start time.Time) {
	var updated T
	var err error
	switch intent.Kind {
	case IntentStatusTransition:
		updated, err = s.backend.UpdateStatus(ctx, id, target)
	case IntentFieldUpdate:
		updated, err = s.backend.UpdateFields(ctx, id, intent.Patch)
	case IntentDelete:
		err = s.backend.Remove(ctx, id)
	}

	s.mu.Lock()
	rec, tracked := s.pending[id]
	if s.closed || !tracked {
		// The view was torn down or the set was replaced: a late
		// confirmation or rollback must not touch anything.
		s.mu.Unlock()
		p.err = err
		close(p.done)
		return
	}
	delete(s.pending, id)
	elapsed := s.clock.Now().Sub(start)

	if err != nil {
		switch intent.Kind {
		case IntentDelete:
			at := rec.index
			if at > len(s.records) {
				at = len(s.records)
			}
			s.records = append(s.records[:at], append([]T{rec.snapshot}, s.records[at:]...)...)
		default:
			if idx := s.indexOf(id); idx >= 0 {
				s.records[idx] = rec.snapshot
			}
		}
		s.metrics.ObserveMutation(s.op(string(intent.Kind)), elapsed, string(domain.KindOf(err)))
		s.logger.Warn("mutation rolled back", "entity", s.entity, "id", id, "kind", intent.Kind, "error", err)
		s.mu.Unlock()
		s.announcer.Announce(s.failureMessage(intent, err))
		p.err = err
		close(p.done)
		return
	}

	if intent.Kind != IntentDelete {
		// Reconcile server-computed fields into the confirmed record.
		if idx := s.indexOf(id); idx >= 0 {
			s.records[idx] = updated.Clone()
		}
	}
	s.metrics.ObserveMutation(s.op(string(intent.Kind)), elapsed, "ok")
	s.logger.Info("mutation confirmed", "entity", s.entity, "id", id, "kind", intent.Kind)
	s.mu.Unlock()
	s.announcer.Announce(s.successMessage(intent))
	close(p.done)
}

// Ordered derives the display ordering of the current record set. Pure with
// respect to the set: the same records and request always produce the same
// ordering.
func (s *Session[T]) Ordered(req *SortRequest) ([]T, error) {
	return Order(s.Records(), req, s.registry, s.policy)
}

// Records returns a deep copy of the current record set in original order.
func (s *Session[T]) Records() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

// IsPending reports whether a mutation is in flight for the record id. The
// UI renders a busy indicator in place of action controls while true.
func (s *Session[T]) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// PendingCount returns the number of in-flight mutations.
func (s *Session[T]) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Announcement returns the currently visible transient status text.
func (s *Session[T]) Announcement() string { return s.announcer.Current() }

// Close tears the session down. In-flight backend calls still resolve, but
// their confirmations and rollbacks become no-ops, and the announcement
// timer is cancelled.
func (s *Session[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.announcer.Close()
}

func (s *Session[T]) indexOf(id string) int {
	for i, rec := range s.records {
		if rec.RecordID() == id {
			return i
		}
	}
	return -1
}

func (s *Session[T]) op(name string) string {
	return fmt.Sprintf("%s.%s", s.entity, name)
}

func (s *Session[T]) label() string {
	switch s.entity {
	case domain.EntityProductOwner:
		return "product owner"
	case domain.EntityLegalDocument:
		return "legal document"
	default:
		return "record"
	}
}

func (s *Session[T]) titleLabel() string {
	l := s.label()
	return strings.ToUpper(l[:1]) + l[1:]
}

func (s *Session[T]) successMessage(intent Intent[T]) string {
	label := s.titleLabel()
	switch intent.Kind {
	case IntentDelete:
		return fmt.Sprintf("%s deleted.", label)
	case IntentFieldUpdate:
		return fmt.Sprintf("%s updated.", label)
	}
	switch intent.Action {
	case domain.ActionLapse:
		return fmt.Sprintf("%s lapsed.", label)
	case domain.ActionReactivate:
		return fmt.Sprintf("%s reactivated.", label)
	case domain.ActionMarkDeceased:
		return fmt.Sprintf("%s marked as deceased.", label)
	default:
		return fmt.Sprintf("%s updated.", label)
	}
}

func (s *Session[T]) failureMessage(intent Intent[T], err error) string {
	if intent.Action == domain.ActionMarkDeceased {
		return fmt.Sprintf("Could not mark %s as deceased. %s", s.label(), domain.UserMessage(err))
	}
	verb := "update"
	switch {
	case intent.Kind == IntentDelete:
		verb = "delete"
	case intent.Action == domain.ActionLapse:
		verb = "lapse"
	case intent.Action == domain.ActionReactivate:
		verb = "reactivate"
	}
	return fmt.Sprintf("Could not %s %s. %s", verb, s.label(), domain.UserMessage(err))
}
