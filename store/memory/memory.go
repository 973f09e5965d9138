// Package memory provides an in-memory Store implementation (tests/dev).
package memory

import (
	"context"
	"sync"

	"github.com/warp/studio-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation with snapshot listeners
// =============================================================================

type Store struct {
	mu           sync.RWMutex
	institutions map[string][]ledger.Institution // ownerID -> documents
	profiles     map[string]ledger.Profile
	listeners    map[string]map[int]func([]ledger.Institution)
	nextListener int
}

func New() *Store {
	return &Store{
		institutions: make(map[string][]ledger.Institution),
		profiles:     make(map[string]ledger.Profile),
		listeners:    make(map[string]map[int]func([]ledger.Institution)),
	}
}

func (m *Store) Institutions(_ context.Context, ownerID string) ([]ledger.Institution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneInstitutions(m.institutions[ownerID]), nil
}

func (m *Store) GetInstitution(_ context.Context, ownerID, id string) (*ledger.Institution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, inst := range m.institutions[ownerID] {
		if inst.ID == id {
			c := cloneInstitution(inst)
			return &c, nil
		}
	}
	return nil, ledger.ErrInstitutionNotFound
}

func (m *Store) CreateInstitution(_ context.Context, ownerID string, inst ledger.Institution) error {
	m.mu.Lock()
	m.institutions[ownerID] = append(m.institutions[ownerID], cloneInstitution(inst))
	snapshot := cloneInstitutions(m.institutions[ownerID])
	fns := m.listenersFor(ownerID)
	m.mu.Unlock()

	notify(fns, snapshot)
	return nil
}

func (m *Store) ApplyUpdate(_ context.Context, ownerID, id string, u ledger.Update) error {
	m.mu.Lock()

	docs := m.institutions[ownerID]
	idx := -1
	for i := range docs {
		if docs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ledger.ErrInstitutionNotFound
	}

	// All named fields land together; the lock is the commit point.
	inst := cloneInstitution(docs[idx])
	inst.State = inst.State.Apply(u)
	if u.Name != nil {
		inst.Name = *u.Name
	}
	if u.Photo != nil {
		inst.Photo = *u.Photo
	}
	if u.Resources != nil {
		inst.Resources = u.Resources
	}
	docs[idx] = inst

	snapshot := cloneInstitutions(docs)
	fns := m.listenersFor(ownerID)
	m.mu.Unlock()

	notify(fns, snapshot)
	return nil
}

func (m *Store) DeleteInstitution(_ context.Context, ownerID, id string) error {
	m.mu.Lock()

	docs := m.institutions[ownerID]
	out := docs[:0]
	found := false
	for _, inst := range docs {
		if inst.ID == id {
			found = true
			continue
		}
		out = append(out, inst)
	}
	if !found {
		m.mu.Unlock()
		return ledger.ErrInstitutionNotFound
	}
	m.institutions[ownerID] = out

	snapshot := cloneInstitutions(out)
	fns := m.listenersFor(ownerID)
	m.mu.Unlock()

	notify(fns, snapshot)
	return nil
}

func (m *Store) Profile(_ context.Context, ownerID string) (*ledger.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[ownerID]
	if !ok {
		p = ledger.Profile{UserID: ownerID}
		m.profiles[ownerID] = p
	}
	c := cloneProfile(p)
	return &c, nil
}

func (m *Store) SaveProfile(_ context.Context, p ledger.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.profiles[p.UserID]
	existing.UserID = p.UserID
	existing.Name = p.Name
	existing.Photo = p.Photo
	m.profiles[p.UserID] = existing
	return nil
}

func (m *Store) ApplySafeUpdate(_ context.Context, ownerID string, u ledger.SafeUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[ownerID]
	if !ok {
		p = ledger.Profile{UserID: ownerID}
	}
	p.Safe = p.Safe.Apply(u)
	m.profiles[ownerID] = p
	return nil
}

func (m *Store) Subscribe(ownerID string, fn func([]ledger.Institution)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listeners[ownerID] == nil {
		m.listeners[ownerID] = make(map[int]func([]ledger.Institution))
	}
	id := m.nextListener
	m.nextListener++
	m.listeners[ownerID][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[ownerID], id)
	}
}

// listenersFor snapshots the callback set under the lock.
func (m *Store) listenersFor(ownerID string) []func([]ledger.Institution) {
	fns := make([]func([]ledger.Institution), 0, len(m.listeners[ownerID]))
	for _, fn := range m.listeners[ownerID] {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func([]ledger.Institution), snapshot []ledger.Institution) {
	for _, fn := range fns {
		fn(snapshot)
	}
}

// =============================================================================
// DEEP COPIES - Callers never share slices with the store
// =============================================================================

func cloneInstitutions(docs []ledger.Institution) []ledger.Institution {
	out := make([]ledger.Institution, len(docs))
	for i, d := range docs {
		out[i] = cloneInstitution(d)
	}
	return out
}

func cloneInstitution(inst ledger.Institution) ledger.Institution {
	c := inst
	c.Students = append([]ledger.Student(nil), inst.Students...)
	c.Lessons = append([]ledger.Lesson(nil), inst.Lessons...)
	c.Transactions = append([]ledger.Transaction(nil), inst.Transactions...)
	c.Resources = append([]ledger.Resource(nil), inst.Resources...)
	return c
}

func cloneProfile(p ledger.Profile) ledger.Profile {
	c := p
	c.Safe.Transactions = append([]ledger.GlobalTransaction(nil), p.Safe.Transactions...)
	return c
}
