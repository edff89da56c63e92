package service

import (
	"sync"
	"time"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// examSlotProposal is a generated, unsaved layout kept for review.
type examSlotProposal struct {
	ID           string
	SubjectID    string
	Semester     string
	AcademicYear string
	ExamType     models.ExamType
	// Roster is the set of student codes the proposal was generated for.
	Roster      map[string]struct{}
	Packing     string
	SlotMode    string
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]examSlotProposal
}

func newProposalStore(ttl time.Duration, now func() time.Time) *proposalStore {
	if now == nil {
		now = time.Now
	}
	return &proposalStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]examSlotProposal),
	}
}

// Save stores proposal and drops expired entries.
func (s *proposalStore) Save(proposal examSlotProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if s.expired(item) {
			delete(s.items, id)
		}
	}
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (examSlotProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return examSlotProposal{}, false
	}
	if s.expired(proposal) {
		s.Delete(id)
		return examSlotProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *proposalStore) ExpiresAt(proposal examSlotProposal) time.Time {
	return proposal.RequestedAt.Add(s.ttl)
}

func (s *proposalStore) expired(proposal examSlotProposal) bool {
	return s.now().Sub(proposal.RequestedAt) > s.ttl
}
