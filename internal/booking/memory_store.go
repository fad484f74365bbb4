package booking

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps appointments in process. Used when DATABASE_URL is unset
// and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Appointment
	keys  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Appointment), keys: make(map[string]struct{})}
}

// Save rejects a second appointment with the same call, customer, service
// and time, mirroring the unique index on the appointments table.
func (s *MemoryStore) Save(_ context.Context, appt Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := naturalKey(appt)
	if _, ok := s.keys[key]; ok {
		return ErrAppointmentExists
	}
	if _, ok := s.items[appt.ID]; ok {
		return ErrAppointmentExists
	}
	s.keys[key] = struct{}{}
	s.items[appt.ID] = appt
	return nil
}

func naturalKey(appt Appointment) string {
	return appt.CallID + "|" + appt.CustomerName + "|" + appt.Service.String() + "|" + appt.Time.UTC().Format(time.RFC3339)
}

func (s *MemoryStore) Get(_ context.Context, id string) (Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.items[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return appt, nil
}

// List returns every appointment ordered by appointment time.
func (s *MemoryStore) List(_ context.Context) ([]Appointment, error) {
	s.mu.RLock()
	out := make([]Appointment, 0, len(s.items))
	for _, appt := range s.items {
		out = append(out, appt)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Time.Equal(out[j].Time) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
