package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quiz-battle-service/internal/domain"
)

// Timings holds the fixed delays of a duel.
type Timings struct {
	LeadIn       time.Duration // join of the 2nd player -> round 1
	Tick         time.Duration // countdown step
	RoundSeconds int           // countdown steps per round
	AnswerGrace  time.Duration // both answered -> round_result
	ResultPause  time.Duration // round_result -> next round
	Rounds       int           // quizzes drawn per match
}

// DefaultTimings returns the production pacing.
func DefaultTimings() Timings {
	return Timings{
		LeadIn:       2 * time.Second,
		Tick:         time.Second,
		RoundSeconds: 10,
		AnswerGrace:  500 * time.Millisecond,
		ResultPause:  1800 * time.Millisecond,
		Rounds:       10,
	}
}

// Match drives one Room through its rounds. Every mutation of the room,
// including timer callbacks, happens under mu.
type Match struct {
	mu      sync.Mutex
	room    *Room
	clock   clockwork.Clock
	timings Timings
	notify  Notifier
	quizzes QuizSource
	onEnd   func(code string)

	// timer is the single armed callback; epoch invalidates callbacks that
	// fired concurrently with a cancel.
	timer  clockwork.Timer
	epoch  uint64
	closed bool
}

func newMatch(code string, host *domain.Player, clock clockwork.Clock, timings Timings, notify Notifier, quizzes QuizSource, onEnd func(string)) *Match {
	return &Match{
		room:    newRoom(code, host),
		clock:   clock,
		timings: timings,
		notify:  notify,
		quizzes: quizzes,
		onEnd:   onEnd,
	}
}

// Code returns the room code.
func (m *Match) Code() string {
	return m.room.code
}

// State returns the current room state.
func (m *Match) State() domain.RoomState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room.state
}

// Summary returns the lobby view of the room and whether it is joinable.
func (m *Match) Summary() (domain.RoomSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.room.state != domain.RoomWaiting {
		return domain.RoomSummary{}, false
	}
	return m.room.summary(), true
}

// Players returns the connection IDs seated in the room.
func (m *Match) Players() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room.connIDs()
}

func (m *Match) announceCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	host := m.room.players[0].ConnID
	m.notify.Send(host, domain.Event{Type: domain.EventRoomCreated, Payload: domain.RoomCreated{RoomCode: m.room.code}})
	m.broadcastLocked(domain.Event{Type: domain.EventPlayerUpdate, Payload: m.room.playerUpdate()})
}

// join seats p. When the room becomes full the duel starts after the lead-in.
// ended reports that the match could not start and was closed.
func (m *Match) join(p *domain.Player) (ended bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, domain.ErrRoomNotFound
	}
	if err := m.room.addPlayer(p); err != nil {
		return false, err
	}
	m.broadcastLocked(domain.Event{Type: domain.EventPlayerUpdate, Payload: m.room.playerUpdate()})
	if !m.room.full() {
		return false, nil
	}

	m.room.begin(m.quizzes.DrawRandom(m.timings.Rounds))
	if len(m.room.quizzes) == 0 {
		// Nothing to play; end immediately rather than stall in BATTLE.
		log.Warn().Str("room_code", m.room.code).Msg("quiz pool empty, ending match")
		m.endLocked()
		return true, nil
	}
	m.broadcastLocked(domain.Event{Type: domain.EventGameStart, Payload: m.room.gameStart()})
	log.Info().
		Str("room_code", m.room.code).
		Int("rounds", len(m.room.quizzes)).
		Msg("battle started")
	m.armLocked(m.timings.LeadIn, m.startRoundLocked)
	return false, nil
}

// submit records an answer. Ignored submissions produce no reply.
func (m *Match) submit(connID string, idx int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	ack, all, ok := m.room.recordAnswer(connID, idx)
	if !ok {
		log.Debug().
			Str("room_code", m.room.code).
			Str("conn_id", connID).
			Int("answer_index", idx).
			Msg("answer ignored")
		return
	}
	m.notify.Send(connID, domain.Event{Type: domain.EventAnswerAck, Payload: ack})
	if all {
		m.armLocked(m.timings.AnswerGrace, func() { m.resolveLocked(false) })
	}
}

// leave tears the room down after a participant disconnects. It reports
// whether this call performed the teardown.
func (m *Match) leave(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.room.player(connID) == nil {
		return false
	}
	m.cancelLocked()
	m.closed = true
	m.room.end()
	for _, id := range m.room.connIDs() {
		if id == connID {
			continue
		}
		m.notify.Send(id, domain.Event{Type: domain.EventPlayerLeft, Payload: domain.PlayerLeft{PlayerID: connID}})
	}
	log.Info().Str("room_code", m.room.code).Str("conn_id", connID).Msg("player left, room closed")
	return true
}

// stop cancels pending timers without notifying anyone.
func (m *Match) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.closed = true
}

func (m *Match) startRoundLocked() {
	quiz := m.room.startRound(m.timings.RoundSeconds)
	m.broadcastLocked(domain.Event{Type: domain.EventNewQuiz, Payload: quiz})
	log.Debug().Str("room_code", m.room.code).Int("round", quiz.RoundIndex).Msg("round started")
	m.armLocked(m.timings.Tick, m.tickLocked)
}

func (m *Match) tickLocked() {
	remaining, expired := m.room.tick()
	m.broadcastLocked(domain.Event{Type: domain.EventTimerUpdate, Payload: domain.TimerUpdate{SecondsRemaining: remaining}})
	if expired {
		m.resolveLocked(true)
		return
	}
	m.armLocked(m.timings.Tick, m.tickLocked)
}

func (m *Match) resolveLocked(timedOut bool) {
	if !m.room.beginResolve() {
		return
	}
	m.cancelLocked()
	result := m.room.resolve()
	m.broadcastLocked(domain.Event{Type: domain.EventRoundResult, Payload: result})
	log.Debug().
		Str("room_code", m.room.code).
		Int("round", m.room.round+1).
		Str("outcome", string(result.OutcomeTag)).
		Bool("timed_out", timedOut).
		Int("hp_p1", result.HP.P1).
		Int("hp_p2", result.HP.P2).
		Msg("round resolved")
	m.armLocked(m.timings.ResultPause, m.advanceLocked)
}

func (m *Match) advanceLocked() {
	if m.room.advance() {
		m.startRoundLocked()
		return
	}
	m.endLocked()
}

func (m *Match) endLocked() {
	m.cancelLocked()
	m.room.end()
	m.closed = true
	over := m.room.outcome()
	m.broadcastLocked(domain.Event{Type: domain.EventGameOver, Payload: over})
	log.Info().Str("room_code", m.room.code).Str("winner", over.WinnerID).Msg("battle over")
}

// armLocked replaces the room's timer with one that runs fn under the lock.
func (m *Match) armLocked(d time.Duration, fn func()) {
	m.cancelLocked()
	epoch := m.epoch
	m.timer = m.clock.AfterFunc(d, func() {
		m.mu.Lock()
		if m.closed || m.epoch != epoch {
			m.mu.Unlock()
			return
		}
		m.timer = nil
		fn()
		ended := m.closed
		m.mu.Unlock()
		if ended && m.onEnd != nil {
			m.onEnd(m.room.code)
		}
	})
}

func (m *Match) cancelLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.epoch++
}

func (m *Match) broadcastLocked(ev domain.Event) {
	for _, p := range m.room.players {
		m.notify.Send(p.ConnID, ev)
	}
}
