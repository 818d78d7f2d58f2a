package app

import (
	"testing"

	"quiz-battle-service/internal/domain"
)

func battleRoom(t *testing.T) *Room {
	t.Helper()
	r := newRoom("ROOM1", &domain.Player{ConnID: "a", Name: "Alice"})
	if err := r.addPlayer(&domain.Player{ConnID: "b", Name: "Bob"}); err != nil {
		t.Fatalf("add player: %v", err)
	}
	r.begin(fixedQuizzes(10).DrawRandom(10))
	r.startRound(10)
	return r
}

func TestRoomRejectsThirdPlayer(t *testing.T) {
	r := newRoom("ROOM1", &domain.Player{ConnID: "a"})
	if err := r.addPlayer(&domain.Player{ConnID: "a"}); err != domain.ErrAlreadyInRoom {
		t.Fatalf("expected ErrAlreadyInRoom, got %v", err)
	}
	if err := r.addPlayer(&domain.Player{ConnID: "b"}); err != nil {
		t.Fatalf("add second player: %v", err)
	}
	if err := r.addPlayer(&domain.Player{ConnID: "c"}); err != domain.ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestRoomBeginResetsPlayers(t *testing.T) {
	r := newRoom("ROOM1", &domain.Player{ConnID: "a", HP: 30, Combo: 4})
	_ = r.addPlayer(&domain.Player{ConnID: "b", HP: 0, Combo: 2})
	r.begin(fixedQuizzes(3).DrawRandom(10))

	if r.state != domain.RoomBattle {
		t.Fatalf("expected BATTLE, got %s", r.state)
	}
	for _, p := range r.players {
		if p.HP != startingHP || p.Combo != 0 {
			t.Fatalf("expected reset player, got %+v", p)
		}
	}
}

func TestRoomResolveOutcomes(t *testing.T) {
	cases := []struct {
		name      string
		a, b      int // -1 means no answer
		outcome   domain.Outcome
		attacker  string
		hpA, hpB  int
		comboA    int
		comboB    int
		answeredA bool
		answeredB bool
	}{
		{"p1 attacks", 0, 1, domain.OutcomeSingleAttack, "a", 100, 80, 1, 0, true, true},
		{"p2 attacks", 2, 0, domain.OutcomeSingleAttack, "b", 80, 100, 0, 1, true, true},
		{"clash", 0, 0, domain.OutcomeClash, "", 90, 90, 1, 1, true, true},
		{"both miss", 1, 3, domain.OutcomeBothMiss, "", 100, 100, 0, 0, true, true},
		{"silence counts as a miss", 0, -1, domain.OutcomeSingleAttack, "a", 100, 80, 1, 0, true, false},
		{"nobody answers", -1, -1, domain.OutcomeBothMiss, "", 100, 100, 0, 0, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := battleRoom(t)
			if tc.a >= 0 {
				r.recordAnswer("a", tc.a)
			}
			if tc.b >= 0 {
				r.recordAnswer("b", tc.b)
			}
			if !r.beginResolve() {
				t.Fatalf("expected to win the resolve transition")
			}
			res := r.resolve()

			if res.OutcomeTag != tc.outcome || res.Attacker != tc.attacker {
				t.Fatalf("expected %s by %q, got %s by %q", tc.outcome, tc.attacker, res.OutcomeTag, res.Attacker)
			}
			if res.HP != (domain.Pair{P1: tc.hpA, P2: tc.hpB}) {
				t.Fatalf("unexpected hp %+v", res.HP)
			}
			if res.Combo != (domain.Pair{P1: tc.comboA, P2: tc.comboB}) {
				t.Fatalf("unexpected combo %+v", res.Combo)
			}
			if (res.P1AnswerIndex != nil) != tc.answeredA || (res.P2AnswerIndex != nil) != tc.answeredB {
				t.Fatalf("unexpected answer indexes %v %v", res.P1AnswerIndex, res.P2AnswerIndex)
			}
			if res.CorrectIndex != 0 {
				t.Fatalf("expected correct index 0, got %d", res.CorrectIndex)
			}
		})
	}
}

func TestRoomResolveOnlyOnce(t *testing.T) {
	r := battleRoom(t)
	r.recordAnswer("a", 0)
	if !r.beginResolve() {
		t.Fatalf("first transition should succeed")
	}
	r.resolve()
	if r.beginResolve() {
		t.Fatalf("second transition must fail")
	}
	if r.players[1].HP != 80 {
		t.Fatalf("expected damage applied once, hp=%d", r.players[1].HP)
	}
}

func TestRoomHPClampsAtZero(t *testing.T) {
	r := battleRoom(t)
	r.players[1].HP = 10
	r.recordAnswer("a", 0)
	r.beginResolve()
	res := r.resolve()
	if res.HP.P2 != 0 {
		t.Fatalf("expected hp clamped to 0, got %d", res.HP.P2)
	}
	if r.advance() {
		t.Fatalf("expected match to end on knockout")
	}
	if over := r.outcome(); over.WinnerID != "a" {
		t.Fatalf("expected a to win, got %s", over.WinnerID)
	}
}

func TestRoomRecordAnswerIgnoresInvalidSubmissions(t *testing.T) {
	r := battleRoom(t)

	if _, _, ok := r.recordAnswer("a", 4); ok {
		t.Fatalf("out of range answer accepted")
	}
	if _, _, ok := r.recordAnswer("stranger", 0); ok {
		t.Fatalf("answer from non-player accepted")
	}
	ack, all, ok := r.recordAnswer("a", 2)
	if !ok || all || ack.IsCorrect || ack.AnswerIndex != 2 {
		t.Fatalf("unexpected first answer result ack=%+v all=%v ok=%v", ack, all, ok)
	}
	if _, _, ok := r.recordAnswer("a", 0); ok {
		t.Fatalf("re-answer accepted")
	}
	if got := r.players[0].LastAnswer; got == nil || got.AnswerIndex != 2 {
		t.Fatalf("re-answer changed the ledger: %+v", got)
	}
	if _, all, ok := r.recordAnswer("b", 0); !ok || !all {
		t.Fatalf("expected both answered")
	}

	r.beginResolve()
	r.resolve()
	if _, _, ok := r.recordAnswer("b", 1); ok {
		t.Fatalf("answer after resolution accepted")
	}
}

func TestRoomStartRoundClearsLedger(t *testing.T) {
	r := battleRoom(t)
	r.recordAnswer("a", 0)
	r.beginResolve()
	r.resolve()
	if !r.advance() {
		t.Fatalf("expected another round")
	}
	quiz := r.startRound(10)

	if quiz.RoundIndex != 2 || quiz.TotalRounds != 10 {
		t.Fatalf("unexpected round payload %+v", quiz)
	}
	if r.players[0].LastAnswer != nil || len(r.answered) != 0 || r.remaining != 10 {
		t.Fatalf("ledger not cleared")
	}
}

func TestRoomTickExpires(t *testing.T) {
	r := battleRoom(t)
	for i := 9; i > 0; i-- {
		remaining, expired := r.tick()
		if remaining != i || expired {
			t.Fatalf("tick: remaining=%d expired=%v", remaining, expired)
		}
	}
	if remaining, expired := r.tick(); remaining != 0 || !expired {
		t.Fatalf("expected expiry, remaining=%d", remaining)
	}
}

func TestRoomOutcomeDraw(t *testing.T) {
	r := battleRoom(t)
	r.players[0].HP, r.players[1].HP = 40, 40
	if over := r.outcome(); over.WinnerID != domain.DrawSentinel || over.Scores != (domain.Pair{}) {
		t.Fatalf("expected draw with zero scores, got %+v", over)
	}
}

func TestRoomSummary(t *testing.T) {
	r := newRoom("ROOM1", &domain.Player{ConnID: "a", Name: "Alice"})
	if s := r.summary(); s != (domain.RoomSummary{RoomCode: "ROOM1", HostName: "Alice", OccupantCount: 1}) {
		t.Fatalf("unexpected summary %+v", s)
	}
}
