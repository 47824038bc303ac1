// Package roomsync reconciles consultation state with the media server.
package roomsync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/infrastructure/livekit"
	"teleclinic/consult-api/internal/infrastructure/metrics"
)

// Syncer polls the media server for active rooms and cancels ongoing
// consultations whose rooms emptied out without an explicit end (both
// sides closed the tab, network loss, crash). A consultation gets a
// grace period after start before it is considered abandoned.
type Syncer struct {
	consults   consultation.Service
	repo       consultation.Repository
	roomClient *livekit.RoomClient
	graceTTL   time.Duration
	interval   time.Duration
	log        zerolog.Logger
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewSyncer creates a new room syncer.
func NewSyncer(
	consults consultation.Service,
	repo consultation.Repository,
	roomClient *livekit.RoomClient,
	graceTTL time.Duration,
	interval time.Duration,
	log zerolog.Logger,
) *Syncer {
	return &Syncer{
		consults:   consults,
		repo:       repo,
		roomClient: roomClient,
		graceTTL:   graceTTL,
		interval:   interval,
		log:        log.With().Str("component", "room-syncer").Logger(),
		done:       make(chan struct{}),
	}
}

// Start begins the sync loop in background.
// Safe to call multiple times - only the first call starts the syncer.
func (s *Syncer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(ctx)
		s.log.Info().Dur("interval", s.interval).Msg("room syncer started")
	})
}

// Stop gracefully shuts down the syncer.
// Safe to call multiple times - only the first call stops the syncer.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.log.Info().Msg("room syncer stopped")
	})
}

func (s *Syncer) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("context cancelled, shutting down syncer")
			return
		case <-s.done:
			s.log.Debug().Msg("done signal received, shutting down syncer")
			return
		case <-ticker.C:
			s.sync(ctx)
		}
	}
}

// sync compares ongoing consultations against the media server's room
// list and cancels the abandoned ones.
func (s *Syncer) sync(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.RoomSyncDuration.Observe(time.Since(start).Seconds())
	}()

	activeRooms, err := s.roomClient.ListActiveRooms(ctx)
	if err != nil {
		metrics.RoomSyncErrors.Inc()
		s.log.Warn().Err(err).Msg("failed to list rooms, skipping cycle")
		return
	}

	ongoing, err := s.repo.ListOngoing(ctx)
	if err != nil {
		metrics.RoomSyncErrors.Inc()
		s.log.Error().Err(err).Msg("failed to list ongoing consultations")
		return
	}

	now := time.Now()
	cancelled := 0

	for _, cons := range ongoing {
		if now.Sub(cons.StartedAt) < s.graceTTL {
			continue
		}

		info, exists := activeRooms[cons.RoomName]
		if exists && info.NumParticipants > 0 {
			continue
		}

		if err := s.consults.EndAbandoned(ctx, cons); err != nil {
			s.log.Warn().Err(err).
				Str("consultation_id", cons.ID).
				Str("room", cons.RoomName).
				Msg("failed to cancel abandoned consultation")
			continue
		}
		cancelled++
		s.log.Info().
			Str("consultation_id", cons.ID).
			Str("room", cons.RoomName).
			Dur("age", now.Sub(cons.StartedAt)).
			Msg("abandoned consultation cancelled")
	}

	if cancelled > 0 || len(ongoing) > 0 {
		s.log.Debug().
			Int("ongoing", len(ongoing)).
			Int("live_rooms", len(activeRooms)).
			Int("cancelled", cancelled).
			Msg("sync cycle")
	}
}
