package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"quiz-battle-service/internal/app"
)

const (
	// RoomsKey is the set of room codes active on this instance.
	RoomsKey   = "battle:rooms"
	roomPrefix = "battle:room:"

	mirrorQueueSize = 256
	mirrorTimeout   = 2 * time.Second
)

type mirrorOp struct {
	code  string
	added bool
}

// RoomStore is a Redis-aware implementation of app.RoomStore.
// Matches stay in a local map; Redis mirrors the active codes and carries a
// liveness key per room for operators. Redis is written by a background
// worker in the order rooms change, so a slow or failing Redis never blocks
// or fails a room action. Liveness keys are re-armed every ttl/2 while the
// room is open.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.RWMutex
	rooms  map[string]*app.Match
	closed bool

	ops  chan mirrorOp
	done chan struct{}
	once sync.Once
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	s := &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Match),
		ops:    make(chan mirrorOp, mirrorQueueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *RoomStore) Add(code string, m *app.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return false
	}
	s.rooms[code] = m
	s.enqueueLocked(mirrorOp{code: code, added: true})
	return true
}

func (s *RoomStore) Get(code string) (*app.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.rooms[code]
	return m, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	s.enqueueLocked(mirrorOp{code: code})
}

func (s *RoomStore) All() []*app.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Match, 0, len(s.rooms))
	for _, m := range s.rooms {
		out = append(out, m)
	}
	return out
}

// Codes returns the codes mirrored in Redis.
func (s *RoomStore) Codes(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, RoomsKey).Result()
}

// Close flushes pending mirror writes and stops the worker.
func (s *RoomStore) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ops)
		s.mu.Unlock()
	})
	<-s.done
}

func (s *RoomStore) enqueueLocked(op mirrorOp) {
	if s.closed {
		return
	}
	select {
	case s.ops <- op:
	default:
		log.Warn().Str("room_code", op.code).Bool("added", op.added).Msg("redis mirror queue full, dropping update")
	}
}

func (s *RoomStore) run() {
	defer close(s.done)

	var tick <-chan time.Time
	if s.ttl > 0 {
		ticker := time.NewTicker(s.ttl / 2)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case op, ok := <-s.ops:
			if !ok {
				return
			}
			s.apply(op)
		case <-tick:
			ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
			if err := s.refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("room liveness keys not refreshed")
			}
			cancel()
		}
	}
}

func (s *RoomStore) apply(op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	if op.added {
		pipe.SAdd(ctx, RoomsKey, op.code)
		pipe.Set(ctx, RoomKey(op.code), "1", s.ttl)
	} else {
		pipe.SRem(ctx, RoomsKey, op.code)
		pipe.Del(ctx, RoomKey(op.code))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("room_code", op.code).Bool("added", op.added).Msg("room not mirrored to redis")
	}
}

// refresh re-arms the liveness key of every room still open locally.
func (s *RoomStore) refresh(ctx context.Context) error {
	s.mu.RLock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	s.mu.RUnlock()
	if len(codes) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, code := range codes {
		pipe.Expire(ctx, RoomKey(code), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RoomKey is the liveness key of a room.
func RoomKey(code string) string {
	return roomPrefix + code
}
