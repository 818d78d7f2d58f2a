package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quiz-battle-service/internal/domain"
)

// RoomStore abstracts where active matches are registered (in-memory, Redis-mirrored, etc).
type RoomStore interface {
	// Add registers m under code. It returns false if the code is taken.
	Add(code string, m *Match) bool
	Get(code string) (*Match, bool)
	Delete(code string)
	All() []*Match
}

// QuizSource draws the quizzes of a new match.
type QuizSource interface {
	DrawRandom(n int) []domain.Quiz
}

// Notifier delivers events to connections. Implementations must not block.
type Notifier interface {
	Send(connID string, event domain.Event)
	// Lobby sends event to every connection for which skip returns false.
	Lobby(event domain.Event, skip func(connID string) bool)
}

const (
	defaultHostName  = "Player 1"
	defaultGuestName = "Player 2"
	defaultHostChar  = "Tanjiro"
	defaultGuestChar = "Gojo"

	maxCodeAttempts = 64
)

// Option customizes a MatchService.
type Option func(*MatchService)

// WithClock replaces the real clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *MatchService) { s.clock = clock }
}

// WithTimings overrides the match pacing.
func WithTimings(t Timings) Option {
	return func(s *MatchService) { s.timings = t }
}

// WithCodeGenerator overrides room code generation.
func WithCodeGenerator(gen func() string) Option {
	return func(s *MatchService) { s.newCode = gen }
}

// MatchService owns the room registry and routes player actions to matches.
type MatchService struct {
	rooms   RoomStore
	quizzes QuizSource
	notify  Notifier
	clock   clockwork.Clock
	timings Timings
	newCode func() string

	mu         sync.RWMutex
	identities map[string]domain.Identity
	members    map[string]string // conn ID -> room code
}

func NewMatchService(rooms RoomStore, quizzes QuizSource, notify Notifier, opts ...Option) *MatchService {
	s := &MatchService{
		rooms:      rooms,
		quizzes:    quizzes,
		notify:     notify,
		clock:      clockwork.NewRealClock(),
		timings:    DefaultTimings(),
		newCode:    NewRoomCode,
		identities: make(map[string]domain.Identity),
		members:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect greets a new connection with the current lobby.
func (s *MatchService) Connect(_ context.Context, connID string) {
	s.notify.Send(connID, s.roomsUpdate())
}

// SetIdentity records the display name and character used by later room actions.
func (s *MatchService) SetIdentity(_ context.Context, connID string, id domain.Identity) {
	s.mu.Lock()
	s.identities[connID] = id.Normalize()
	s.mu.Unlock()
	s.notify.Send(connID, domain.Event{Type: domain.EventLobbyJoined, Payload: struct{}{}})
}

// CreateRoom opens a WAITING room hosted by connID and returns its code.
func (s *MatchService) CreateRoom(_ context.Context, connID string) (string, error) {
	s.mu.Lock()
	if _, ok := s.members[connID]; ok {
		s.mu.Unlock()
		return "", domain.ErrAlreadyInRoom
	}
	host := s.newPlayerLocked(connID, defaultHostName, defaultHostChar)

	var m *Match
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.newCode()
		candidate := newMatch(code, host, s.clock, s.timings, s.notify, s.quizzes, s.handleMatchEnded)
		if s.rooms.Add(code, candidate) {
			m = candidate
			break
		}
		log.Debug().Str("room_code", code).Msg("room code collision, retrying")
	}
	if m == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("create room: %w", domain.ErrCodeSpaceExhausted)
	}
	s.members[connID] = m.Code()
	s.mu.Unlock()

	m.announceCreated()
	log.Info().Str("room_code", m.Code()).Str("conn_id", connID).Msg("room created")
	s.publishLobby()
	return m.Code(), nil
}

// JoinRoom seats connID in the room with the given code.
func (s *MatchService) JoinRoom(_ context.Context, code, connID string) error {
	code = NormalizeRoomCode(code)

	s.mu.Lock()
	if _, ok := s.members[connID]; ok {
		s.mu.Unlock()
		return domain.ErrAlreadyInRoom
	}
	m, ok := s.rooms.Get(code)
	if !ok {
		s.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	guest := s.newPlayerLocked(connID, defaultGuestName, defaultGuestChar)
	// Seat the membership first so a concurrent second join from the same
	// connection is rejected; roll back on failure.
	s.members[connID] = code
	s.mu.Unlock()

	ended, err := m.join(guest)
	if err != nil {
		s.mu.Lock()
		delete(s.members, connID)
		s.mu.Unlock()
		return err
	}
	log.Info().Str("room_code", code).Str("conn_id", connID).Msg("player joined room")
	if ended {
		s.removeRoom(m)
	}
	s.publishLobby()
	return nil
}

// SubmitAnswer routes an answer to the room. Absent rooms and late or
// repeated answers are ignored.
func (s *MatchService) SubmitAnswer(_ context.Context, code, connID string, answerIndex int) error {
	if !domain.ValidAnswerIndex(answerIndex) {
		return &domain.ValidationError{Field: "answerIndex", Reason: fmt.Sprintf("must be between 0 and %d", domain.NumOptions-1)}
	}
	m, ok := s.rooms.Get(NormalizeRoomCode(code))
	if !ok {
		return nil
	}
	m.submit(connID, answerIndex)
	return nil
}

// Disconnect forgets connID and tears down any room it sits in.
func (s *MatchService) Disconnect(_ context.Context, connID string) {
	s.mu.Lock()
	delete(s.identities, connID)
	code, ok := s.members[connID]
	delete(s.members, connID)
	s.mu.Unlock()
	if !ok {
		return
	}

	if m, found := s.rooms.Get(code); found && m.leave(connID) {
		s.removeRoom(m)
	}
	s.publishLobby()
}

// RoomList returns the joinable rooms, ordered by code.
func (s *MatchService) RoomList() []domain.RoomSummary {
	matches := s.rooms.All()
	out := make([]domain.RoomSummary, 0, len(matches))
	for _, m := range matches {
		if summary, ok := m.Summary(); ok {
			out = append(out, summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomCode < out[j].RoomCode })
	return out
}

// ActiveRooms returns the number of registered rooms in any state.
func (s *MatchService) ActiveRooms() int {
	return len(s.rooms.All())
}

// Shutdown cancels every pending match timer.
func (s *MatchService) Shutdown() {
	for _, m := range s.rooms.All() {
		m.stop()
		s.rooms.Delete(m.Code())
	}
}

func (s *MatchService) handleMatchEnded(code string) {
	if m, ok := s.rooms.Get(code); ok {
		s.removeRoom(m)
	}
	s.publishLobby()
}

func (s *MatchService) removeRoom(m *Match) {
	s.rooms.Delete(m.Code())
	players := m.Players()
	s.mu.Lock()
	for _, id := range players {
		if s.members[id] == m.Code() {
			delete(s.members, id)
		}
	}
	s.mu.Unlock()
}

func (s *MatchService) newPlayerLocked(connID, fallbackName, fallbackChar string) *domain.Player {
	id := s.identities[connID]
	name, char := id.Name, id.Character
	if name == "" {
		name = fallbackName
	}
	if char == "" {
		char = fallbackChar
	}
	return &domain.Player{ConnID: connID, Name: name, Character: char, HP: startingHP}
}

// inBattle reports whether connID is seated in a room that already started.
func (s *MatchService) inBattle(connID string) bool {
	s.mu.RLock()
	code, ok := s.members[connID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	m, ok := s.rooms.Get(code)
	return ok && m.State() == domain.RoomBattle
}

func (s *MatchService) roomsUpdate() domain.Event {
	return domain.Event{Type: domain.EventRoomsUpdate, Payload: domain.RoomsUpdate{Rooms: s.RoomList()}}
}

func (s *MatchService) publishLobby() {
	s.notify.Lobby(s.roomsUpdate(), s.inBattle)
}

// NormalizeRoomCode canonicalizes user-typed codes.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
