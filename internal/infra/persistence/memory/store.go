// Package memory provides an in-memory implementation of the backend store
// used for tests and ephemeral environments. Writes are validated by a
// rules engine before commit and reported as classified errors.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"estatecore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.Store = (*Store)(nil)

// Store keeps records in insertion order so list results are stable across
// calls, which the display partitioner depends on.
type Store struct {
	mu            sync.RWMutex
	engine        *domain.RulesEngine
	owners        map[string]domain.ProductOwner
	documents     map[string]domain.LegalDocument
	ownerOrder    []string
	documentOrder []string
	nowFn         func() time.Time
}

// NewStore constructs an in-memory store validated by the provided engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		engine:    engine,
		owners:    make(map[string]domain.ProductOwner),
		documents: make(map[string]domain.LegalDocument),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// storeView exposes committed state to rules.
type storeView struct {
	store *Store
}

func (v storeView) ListOwners() []domain.ProductOwner {
	out := make([]domain.ProductOwner, 0, len(v.store.owners))
	for _, id := range v.store.ownerOrder {
		out = append(out, v.store.owners[id].Clone())
	}
	return out
}

func (v storeView) ListDocuments() []domain.LegalDocument {
	out := make([]domain.LegalDocument, 0, len(v.store.documents))
	for _, id := range v.store.documentOrder {
		out = append(out, v.store.documents[id].Clone())
	}
	return out
}

func (v storeView) FindOwner(id string) (domain.ProductOwner, bool) {
	o, ok := v.store.owners[id]
	if !ok {
		return domain.ProductOwner{}, false
	}
	return o.Clone(), true
}

func (v storeView) FindDocument(id string) (domain.LegalDocument, bool) {
	d, ok := v.store.documents[id]
	if !ok {
		return domain.LegalDocument{}, false
	}
	return d.Clone(), true
}

// evaluateLocked runs the rules engine against the pending changes. Blocking
// violations map to invalid-transition or validation errors; violation
// messages are user-safe and pass through.
func (s *Store) evaluateLocked(ctx context.Context, op string, changes []domain.Change) error {
	res, err := s.engine.Evaluate(ctx, storeView{store: s}, changes)
	if err != nil {
		return domain.WrapError(domain.KindServer, op, err)
	}
	if !res.HasBlocking() {
		return nil
	}
	kind := domain.KindValidation
	message := ""
	for _, v := range res.Violations {
		if v.Severity != domain.SeverityBlock {
			continue
		}
		if message == "" {
			message = v.Message
		}
		if v.Rule == "status_transition" {
			kind = domain.KindInvalidTransition
		}
	}
	return &domain.Error{Kind: kind, Op: op, Message: message, Err: domain.RuleViolationError{Result: res}}
}

// ListOwners returns owners in insertion order, filtered by estate when
// estateID is non-empty.
func (s *Store) ListOwners(_ context.Context, estateID string) ([]domain.ProductOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProductOwner, 0, len(s.ownerOrder))
	for _, id := range s.ownerOrder {
		o := s.owners[id]
		if estateID != "" && o.EstateID != estateID {
			continue
		}
		out = append(out, o.Clone())
	}
	return out, nil
}

// CreateOwner stores a new product owner.
func (s *Store) CreateOwner(ctx context.Context, owner domain.ProductOwner) (domain.ProductOwner, error) {
	const op = "owner.create"
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner.ID == "" {
		owner.ID = s.newID()
	}
	if _, exists := s.owners[owner.ID]; exists {
		return domain.ProductOwner{}, domain.NewError(domain.KindValidation, op, "A record with this id already exists.")
	}
	if owner.Status == "" {
		owner.Status = domain.OwnerActive
	}
	now := s.nowFn()
	owner.CreatedAt = now
	owner.UpdatedAt = now
	if err := s.evaluateLocked(ctx, op, []domain.Change{{Entity: domain.EntityProductOwner, Action: domain.ActionCreate, After: owner.Clone()}}); err != nil {
		return domain.ProductOwner{}, err
	}
	s.owners[owner.ID] = owner.Clone()
	s.ownerOrder = append(s.ownerOrder, owner.ID)
	return owner.Clone(), nil
}

// UpdateOwner applies a field patch to an owner.
func (s *Store) UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (domain.ProductOwner, error) {
	const op = "owner.update"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.owners[id]
	if !ok {
		return domain.ProductOwner{}, domain.NewError(domain.KindNotFound, op, "product owner not found")
	}
	next := current.Clone()
	patch.Apply(&next)
	next.UpdatedAt = s.nowFn()
	change := domain.Change{Entity: domain.EntityProductOwner, Action: domain.ActionUpdate, Before: current.Clone(), After: next.Clone()}
	if err := s.evaluateLocked(ctx, op, []domain.Change{change}); err != nil {
		return domain.ProductOwner{}, err
	}
	s.owners[id] = next.Clone()
	return next.Clone(), nil
}

// UpdateOwnerStatus moves an owner to a new lifecycle status.
func (s *Store) UpdateOwnerStatus(ctx context.Context, id string, next domain.Status) (domain.ProductOwner, error) {
	const op = "owner.update_status"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.owners[id]
	if !ok {
		return domain.ProductOwner{}, domain.NewError(domain.KindNotFound, op, "product owner not found")
	}
	updated := current.Clone().WithStatus(next)
	updated.UpdatedAt = s.nowFn()
	change := domain.Change{Entity: domain.EntityProductOwner, Action: domain.ActionUpdate, Before: current.Clone(), After: updated.Clone()}
	if err := s.evaluateLocked(ctx, op, []domain.Change{change}); err != nil {
		return domain.ProductOwner{}, err
	}
	s.owners[id] = updated.Clone()
	return updated.Clone(), nil
}

// RemoveOwner deletes an owner record.
func (s *Store) RemoveOwner(ctx context.Context, id string) error {
	const op = "owner.remove"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.owners[id]
	if !ok {
		return domain.NewError(domain.KindNotFound, op, "product owner not found")
	}
	change := domain.Change{Entity: domain.EntityProductOwner, Action: domain.ActionRemove, Before: current.Clone()}
	if err := s.evaluateLocked(ctx, op, []domain.Change{change}); err != nil {
		return err
	}
	delete(s.owners, id)
	s.ownerOrder = removeID(s.ownerOrder, id)
	return nil
}

// ListDocuments returns documents in insertion order, filtered by estate
// when estateID is non-empty.
func (s *Store) ListDocuments(_ context.Context, estateID string) ([]domain.LegalDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LegalDocument, 0, len(s.documentOrder))
	for _, id := range s.documentOrder {
		d := s.documents[id]
		if estateID != "" && d.EstateID != estateID {
			continue
		}
		out = append(out, d.Clone())
	}
	return out, nil
}

// CreateDocument stores a new legal document.
func (s *Store) CreateDocument(ctx context.Context, doc domain.LegalDocument) (domain.LegalDocument, error) {
	const op = "document.create"
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = s.newID()
	}
	if _, exists := s.documents[doc.ID]; exists {
		return domain.LegalDocument{}, domain.NewError(domain.KindValidation, op, "A record with this id already exists.")
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentSigned
	}
	now := s.nowFn()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if err := s.evaluateLocked(ctx, op, []domain.Change{{Entity: domain.EntityLegalDocument, Action: domain.ActionCreate, After: doc.Clone()}}); err != nil {
		return domain.LegalDocument{}, err
	}
	s.documents[doc.ID] = doc.Clone()
	s.documentOrder = append(s.documentOrder, doc.ID)
	return doc.Clone(), nil
}

// UpdateDocument applies a field patch to a document.
func (s *Store) UpdateDocument(ctx context.Context, id string, patch domain.DocumentPatch) (domain.LegalDocument, error) {
	const op = "document.update"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.documents[id]
	if !ok {
		return domain.LegalDocument{}, domain.NewError(domain.KindNotFound, op, "legal document not found")
	}
	next := current.Clone()
	patch.Apply(&next)
	next.UpdatedAt = s.nowFn()
	change := domain.Change{Entity: domain.EntityLegalDocument, Action: domain.ActionUpdate, Before: current.Clone(), After: next.Clone()}
	if err := s.evaluateLocked(ctx, op, []domain.Change{change}); err != nil {
		return domain.LegalDocument{}, err
	}
	s.documents[id] = next.Clone()
	return next.Clone(), nil
}

// UpdateDocumentStatus moves a document to a new lifecycle status.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id string, next domain.Status) (domain.LegalDocument, error) {
	const op = "document.update_status"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.documents[id]
	if !ok {
		return domain.LegalDocument{}, domain.NewError(domain.KindNotFound, op, "legal document not found")
	}
	updated := current.Clone().WithStatus(next)
	updated.UpdatedAt = s.nowFn()
	change := domain.Change{Entity: domain.EntityLegalDocument, Action: domain.ActionUpdate, Before: current.Clone(), After: updated.Clone()}
	if err := s.evaluateLocked(ctx, op, []domain.Change{change}); err != nil {
		return domain.LegalDocument{}, err
	}
	s.documents[id] = updated.Clone()
	return updated.Clone(), nil
}

// RemoveDocument deletes a document record.
func (s *Store) RemoveDocument(ctx context.Context, id string) error {
	const op = "document.remove"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.documents[id]
	if !ok {
		return domain.NewError(domain.KindNotFound, op, "legal document not found")
	}
	change := domain.Change{Entity: domain.EntityLegalDocument, Action: domain.ActionRemove, Before: current.Clone()}
	if err := s.evaluateLocked(ctx, op, []domain.Change{change}); err != nil {
		return err
	}
	delete(s.documents, id)
	s.documentOrder = removeID(s.documentOrder, id)
	return nil
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// Snapshot is the JSON-serializable full state used by durable stores.
type Snapshot struct {
	Owners    []domain.ProductOwner  `json:"owners"`
	Documents []domain.LegalDocument `json:"documents"`
}

// ExportState copies the full state, preserving insertion order.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Owners:    make([]domain.ProductOwner, 0, len(s.ownerOrder)),
		Documents: make([]domain.LegalDocument, 0, len(s.documentOrder)),
	}
	for _, id := range s.ownerOrder {
		snap.Owners = append(snap.Owners, s.owners[id].Clone())
	}
	for _, id := range s.documentOrder {
		snap.Documents = append(snap.Documents, s.documents[id].Clone())
	}
	return snap
}

// ImportState replaces the full state with the snapshot contents.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners = make(map[string]domain.ProductOwner, len(snap.Owners))
	s.documents = make(map[string]domain.LegalDocument, len(snap.Documents))
	s.ownerOrder = s.ownerOrder[:0]
	s.documentOrder = s.documentOrder[:0]
	for _, o := range snap.Owners {
		s.owners[o.ID] = o.Clone()
		s.ownerOrder = append(s.ownerOrder, o.ID)
	}
	for _, d := range snap.Documents {
		s.documents[d.ID] = d.Clone()
		s.documentOrder = append(s.documentOrder, d.ID)
	}
}
