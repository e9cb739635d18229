package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"breachnotice/internal/notice/models"
	"breachnotice/pkg/platform/sentinel"
)

// MemoryStore keeps documents and their child collections in memory for
// tests/dev. It stands in for the external document-store service.
type MemoryStore struct {
	mu           sync.RWMutex
	documents    map[uuid.UUID]*models.BreachNotice
	contacts     map[uuid.UUID]map[int64]*models.Contact
	requirements map[uuid.UUID]map[int64]*models.Requirement
	links        map[uuid.UUID][]*models.ContactRequirementLink
}

// NewMemoryStore constructs an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:    make(map[uuid.UUID]*models.BreachNotice),
		contacts:     make(map[uuid.UUID]map[int64]*models.Contact),
		requirements: make(map[uuid.UUID]map[int64]*models.Requirement),
		links:        make(map[uuid.UUID][]*models.ContactRequirementLink),
	}
}

// Seed inserts a document directly, for tests and dev fixtures. Documents are
// created externally before the wizard is reached, so there is no Create in
// the DocumentStore contract.
func (s *MemoryStore) Seed(doc *models.BreachNotice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.documents[doc.ID] = &copied
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.BreachNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	copied := *doc
	return &copied, nil
}

func (s *MemoryStore) Update(_ context.Context, doc *models.BreachNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrNotFound)
	}
	copied := *doc
	s.documents[doc.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.documents, id)
	delete(s.contacts, id)
	delete(s.requirements, id)
	delete(s.links, id)
	return nil
}

func (s *MemoryStore) ListContacts(_ context.Context, documentID uuid.UUID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byRemote := s.contacts[documentID]
	result := make([]*models.Contact, 0, len(byRemote))
	for _, c := range byRemote {
		copied := *c
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RemoteID < result[j].RemoteID })
	return result, nil
}

func (s *MemoryStore) CreateContact(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[contact.DocumentID]; !ok {
		return fmt.Errorf("document %s: %w", contact.DocumentID, sentinel.ErrNotFound)
	}
	byRemote := s.contacts[contact.DocumentID]
	if byRemote == nil {
		byRemote = make(map[int64]*models.Contact)
		s.contacts[contact.DocumentID] = byRemote
	}
	// At most one local contact per remote id within a document.
	if _, exists := byRemote[contact.RemoteID]; exists {
		return fmt.Errorf("contact for remote id %d: %w", contact.RemoteID, sentinel.ErrConflict)
	}
	copied := *contact
	byRemote[contact.RemoteID] = &copied
	return nil
}

func (s *MemoryStore) UpdateContact(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRemote := s.contacts[contact.DocumentID]
	if _, ok := byRemote[contact.RemoteID]; !ok {
		return fmt.Errorf("contact for remote id %d: %w", contact.RemoteID, sentinel.ErrNotFound)
	}
	copied := *contact
	byRemote[contact.RemoteID] = &copied
	return nil
}

func (s *MemoryStore) DeleteContact(_ context.Context, documentID uuid.UUID, remoteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRemote := s.contacts[documentID]
	if _, ok := byRemote[remoteID]; !ok {
		return fmt.Errorf("contact for remote id %d: %w", remoteID, sentinel.ErrNotFound)
	}
	delete(byRemote, remoteID)
	return nil
}

func (s *MemoryStore) ListRequirements(_ context.Context, documentID uuid.UUID) ([]*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byRemote := s.requirements[documentID]
	result := make([]*models.Requirement, 0, len(byRemote))
	for _, r := range byRemote {
		copied := *r
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RemoteID < result[j].RemoteID })
	return result, nil
}

func (s *MemoryStore) CreateRequirement(_ context.Context, requirement *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[requirement.DocumentID]; !ok {
		return fmt.Errorf("document %s: %w", requirement.DocumentID, sentinel.ErrNotFound)
	}
	byRemote := s.requirements[requirement.DocumentID]
	if byRemote == nil {
		byRemote = make(map[int64]*models.Requirement)
		s.requirements[requirement.DocumentID] = byRemote
	}
	if _, exists := byRemote[requirement.RemoteID]; exists {
		return fmt.Errorf("requirement for remote id %d: %w", requirement.RemoteID, sentinel.ErrConflict)
	}
	copied := *requirement
	byRemote[requirement.RemoteID] = &copied
	return nil
}

func (s *MemoryStore) UpdateRequirement(_ context.Context, requirement *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRemote := s.requirements[requirement.DocumentID]
	if _, ok := byRemote[requirement.RemoteID]; !ok {
		return fmt.Errorf("requirement for remote id %d: %w", requirement.RemoteID, sentinel.ErrNotFound)
	}
	copied := *requirement
	byRemote[requirement.RemoteID] = &copied
	return nil
}

func (s *MemoryStore) DeleteRequirement(_ context.Context, documentID uuid.UUID, remoteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRemote := s.requirements[documentID]
	if _, ok := byRemote[remoteID]; !ok {
		return fmt.Errorf("requirement for remote id %d: %w", remoteID, sentinel.ErrNotFound)
	}
	delete(byRemote, remoteID)
	return nil
}

func (s *MemoryStore) ListLinks(_ context.Context, documentID uuid.UUID) ([]*models.ContactRequirementLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := s.links[documentID]
	result := make([]*models.ContactRequirementLink, 0, len(links))
	for _, l := range links {
		copied := *l
		result = append(result, &copied)
	}
	return result, nil
}

func (s *MemoryStore) BatchCreateLinks(_ context.Context, links []*models.ContactRequirementLink) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	for _, l := range links {
		if _, ok := s.documents[l.DocumentID]; !ok {
			return applied, fmt.Errorf("document %s: %w", l.DocumentID, sentinel.ErrNotFound)
		}
		copied := *l
		s.links[l.DocumentID] = append(s.links[l.DocumentID], &copied)
		applied++
	}
	return applied, nil
}

func (s *MemoryStore) BatchDeleteLinks(_ context.Context, documentID uuid.UUID, remoteContactIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toDelete := make(map[int64]bool, len(remoteContactIDs))
	for _, id := range remoteContactIDs {
		toDelete[id] = true
	}
	kept := s.links[documentID][:0]
	applied := 0
	for _, l := range s.links[documentID] {
		if toDelete[l.RemoteContactID] {
			applied++
			continue
		}
		kept = append(kept, l)
	}
	s.links[documentID] = kept
	return applied, nil
}

func (s *MemoryStore) RecalculateFailureSummary(_ context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return fmt.Errorf("document %s: %w", documentID, sentinel.ErrNotFound)
	}
	contacts := make([]*models.Contact, 0, len(s.contacts[documentID]))
	for _, c := range s.contacts[documentID] {
		contacts = append(contacts, c)
	}
	doc.FailureSummary = SummarizeFailures(contacts)
	return nil
}
