// Package availability tracks which doctors currently accept patients.
package availability

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/rs/zerolog"
)

// Service tracks per-doctor availability. Toggles arrive over the event
// bridge and are debounced so a burst of double-clicks collapses into the
// last value instead of flooding the channel.
type Service struct {
	mu        sync.RWMutex
	available map[int64]bool
	pending   map[int64]bool
	debounced map[int64]func(func())
	window    time.Duration
	log       zerolog.Logger
}

// NewService creates a new availability service.
func NewService(window time.Duration, log zerolog.Logger) *Service {
	return &Service{
		available: make(map[int64]bool),
		pending:   make(map[int64]bool),
		debounced: make(map[int64]func(func())),
		window:    window,
		log:       log.With().Str("component", "availability-service").Logger(),
	}
}

// Switch records a doctor's requested availability. The value is applied
// after the debounce window; within the window the last request wins.
func (s *Service) Switch(ctx context.Context, doctorID int64, isAvailable bool) {
	s.mu.Lock()
	s.pending[doctorID] = isAvailable
	fn, ok := s.debounced[doctorID]
	if !ok {
		fn = debounce.New(s.window)
		s.debounced[doctorID] = fn
	}
	s.mu.Unlock()

	fn(func() {
		s.apply(doctorID)
	})
}

func (s *Service) apply(doctorID int64) {
	s.mu.Lock()
	value := s.pending[doctorID]
	s.available[doctorID] = value
	s.mu.Unlock()

	s.log.Info().
		Int64("doctor_id", doctorID).
		Bool("is_available", value).
		Msg("doctor availability switched")
}

// IsAvailable reports whether the doctor currently accepts patients.
// Doctors default to unavailable until they toggle on.
func (s *Service) IsAvailable(doctorID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available[doctorID]
}
