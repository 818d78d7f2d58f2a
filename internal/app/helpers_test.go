package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"quiz-battle-service/internal/domain"
)

type sent struct {
	conn  string
	event domain.Event
}

// recorder is a Notifier that queues every delivery.
type recorder struct {
	mu     sync.Mutex
	conns  []string
	events chan sent
}

func newRecorder(conns ...string) *recorder {
	return &recorder{conns: conns, events: make(chan sent, 4096)}
}

func (r *recorder) Send(connID string, event domain.Event) {
	r.events <- sent{conn: connID, event: event}
}

func (r *recorder) Lobby(event domain.Event, skip func(string) bool) {
	r.mu.Lock()
	conns := append([]string(nil), r.conns...)
	r.mu.Unlock()
	for _, id := range conns {
		if skip(id) {
			continue
		}
		r.Send(id, event)
	}
}

// waitFor discards deliveries until one of the given type reaches conn.
func (r *recorder) waitFor(t *testing.T, conn, typ string) domain.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.events:
			if s.conn == conn && s.event.Type == typ {
				return s.event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s to %s", typ, conn)
			return domain.Event{}
		}
	}
}

// drain returns everything queued so far.
func (r *recorder) drain() []sent {
	var out []sent
	for {
		select {
		case s := <-r.events:
			out = append(out, s)
		default:
			return out
		}
	}
}

func count(events []sent, conn, typ string) int {
	n := 0
	for _, s := range events {
		if s.conn == conn && s.event.Type == typ {
			n++
		}
	}
	return n
}

type mapStore struct {
	mu    sync.Mutex
	rooms map[string]*Match
}

func newMapStore() *mapStore {
	return &mapStore{rooms: make(map[string]*Match)}
}

func (s *mapStore) Add(code string, m *Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return false
	}
	s.rooms[code] = m
	return true
}

func (s *mapStore) Get(code string) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rooms[code]
	return m, ok
}

func (s *mapStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

func (s *mapStore) All() []*Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Match, 0, len(s.rooms))
	for _, m := range s.rooms {
		out = append(out, m)
	}
	return out
}

// fixedQuizzes draws in order, always with option 0 correct.
type fixedQuizzes int

func (n fixedQuizzes) DrawRandom(want int) []domain.Quiz {
	total := min(int(n), want)
	out := make([]domain.Quiz, 0, total)
	for i := 0; i < total; i++ {
		out = append(out, domain.Quiz{
			Question:     fmt.Sprintf("question %d", i+1),
			Options:      []string{"right", "wrong", "wrong", "wrong"},
			CorrectIndex: 0,
		})
	}
	return out
}

func sequentialCodes(codes ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		code := codes[min(i, len(codes)-1)]
		i++
		return code
	}
}

// advance waits for the match timer to be armed, then moves the fake clock.
func advance(t *testing.T, fc *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("no timer armed: %v", err)
	}
	fc.Advance(d)
}

type fixture struct {
	svc     *MatchService
	rec     *recorder
	fc      *clockwork.FakeClock
	timings Timings
	code    string
}

// newBattle creates a room hosted by "a", seats "b" and waits for game_start.
func newBattle(t *testing.T, pool int) *fixture {
	t.Helper()
	f := &fixture{rec: newRecorder("a", "b", "lobby"), fc: clockwork.NewFakeClock(), timings: DefaultTimings()}
	f.svc = NewMatchService(newMapStore(), fixedQuizzes(pool), f.rec,
		WithClock(f.fc), WithTimings(f.timings), WithCodeGenerator(sequentialCodes("DUEL1")))

	ctx := context.Background()
	code, err := f.svc.CreateRoom(ctx, "a")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := f.svc.JoinRoom(ctx, code, "b"); err != nil {
		t.Fatalf("join room: %v", err)
	}
	f.code = code
	f.rec.waitFor(t, "b", domain.EventGameStart)
	return f
}

// startRound advances through the lead-in or pause and returns the quiz shown.
func (f *fixture) startRound(t *testing.T, delay time.Duration) domain.NewQuiz {
	t.Helper()
	advance(t, f.fc, delay)
	return f.rec.waitFor(t, "a", domain.EventNewQuiz).Payload.(domain.NewQuiz)
}

func (f *fixture) submit(t *testing.T, conn string, idx int) {
	t.Helper()
	if err := f.svc.SubmitAnswer(context.Background(), f.code, conn, idx); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
}

func (f *fixture) match(t *testing.T) *Match {
	t.Helper()
	m, ok := f.svc.rooms.Get(f.code)
	if !ok {
		t.Fatalf("room %s not registered", f.code)
	}
	return m
}
