// Package memory provides in-process repositories for tests and local runs.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

// Store is the shared state behind every in-memory repository.
type Store struct {
	mu         sync.RWMutex
	cards      map[uuid.UUID]*model.InsuranceCard
	cardTypes  map[uuid.UUID]*model.CardType
	facilities map[uuid.UUID]*model.HealthcareFacility
	policies   map[uuid.UUID]*model.CoveragePolicy
	claims     map[uuid.UUID]*model.Claim
	history    map[uuid.UUID][]*model.ClaimStatusHistory
	sequences  map[string]int64
	outbox     []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		cards:      make(map[uuid.UUID]*model.InsuranceCard),
		cardTypes:  make(map[uuid.UUID]*model.CardType),
		facilities: make(map[uuid.UUID]*model.HealthcareFacility),
		policies:   make(map[uuid.UUID]*model.CoveragePolicy),
		claims:     make(map[uuid.UUID]*model.Claim),
		history:    make(map[uuid.UUID][]*model.ClaimStatusHistory),
		sequences:  make(map[string]int64),
	}
}

func (s *Store) AddCardType(ct *model.CardType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
	}
	cp := *ct
	s.cardTypes[ct.ID] = &cp
}

// AddCard seeds a card. It panics on a card that fails validation, as
// seeding happens at setup time.
func (s *Store) AddCard(c *model.InsuranceCard) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("memory: add card %q: %v", c.CardNumber, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	s.cards[c.ID] = &cp
}

func (s *Store) AddFacility(f *model.HealthcareFacility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	cp := *f
	s.facilities[f.ID] = &cp
}

// AddPolicy seeds a policy and panics like AddCard on invalid input.
func (s *Store) AddPolicy(p *model.CoveragePolicy) {
	if err := p.Validate(); err != nil {
		panic(fmt.Sprintf("memory: add policy %q: %v", p.Name, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	s.policies[p.ID] = &cp
}

func (s *Store) Cards() *CardRepository          { return &CardRepository{s} }
func (s *Store) Facilities() *FacilityRepository { return &FacilityRepository{s} }
func (s *Store) Policies() *PolicyRepository     { return &PolicyRepository{s} }
func (s *Store) Claims() *ClaimRepository        { return &ClaimRepository{s} }
func (s *Store) Sequences() *SequenceRepository  { return &SequenceRepository{s} }
func (s *Store) Outbox() *OutboxRepository       { return &OutboxRepository{s} }
