package app

import (
	"quiz-battle-service/internal/domain"
)

const (
	maxPlayers   = 2
	startingHP   = 100
	attackDamage = 20
	clashDamage  = 10
)

// roundPhase guards resolution: both the countdown and the all-answered path
// must win the PENDING -> RESOLVING transition before touching hp.
type roundPhase int

const (
	phaseIdle roundPhase = iota
	phasePending
	phaseResolving
	phaseResolved
)

// Room is the state of one duel. It performs no I/O and is not safe for
// concurrent use; Match serializes access to it.
type Room struct {
	code      string
	state     domain.RoomState
	players   []*domain.Player
	quizzes   []domain.Quiz
	round     int
	remaining int
	answered  map[string]struct{}
	phase     roundPhase
}

func newRoom(code string, host *domain.Player) *Room {
	return &Room{
		code:     code,
		state:    domain.RoomWaiting,
		players:  []*domain.Player{host},
		answered: make(map[string]struct{}),
	}
}

func (r *Room) addPlayer(p *domain.Player) error {
	if r.state != domain.RoomWaiting || len(r.players) >= maxPlayers {
		return domain.ErrRoomFull
	}
	for _, existing := range r.players {
		if existing.ConnID == p.ConnID {
			return domain.ErrAlreadyInRoom
		}
	}
	r.players = append(r.players, p)
	return nil
}

func (r *Room) full() bool {
	return len(r.players) == maxPlayers
}

func (r *Room) player(connID string) *domain.Player {
	for _, p := range r.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) connIDs() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ConnID)
	}
	return ids
}

// begin moves a full room into BATTLE with the drawn quizzes.
func (r *Room) begin(quizzes []domain.Quiz) {
	r.state = domain.RoomBattle
	r.quizzes = quizzes
	r.round = 0
	r.phase = phaseIdle
	for _, p := range r.players {
		p.HP = startingHP
		p.Combo = 0
		p.LastAnswer = nil
	}
}

func (r *Room) currentQuiz() domain.Quiz {
	return r.quizzes[r.round]
}

// startRound resets the per-round ledger and returns the presentation payload.
func (r *Room) startRound(seconds int) domain.NewQuiz {
	r.remaining = seconds
	r.answered = make(map[string]struct{}, maxPlayers)
	for _, p := range r.players {
		p.LastAnswer = nil
	}
	r.phase = phasePending

	q := r.currentQuiz()
	return domain.NewQuiz{
		Question:    q.Question,
		Options:     append([]string(nil), q.Options...),
		RoundIndex:  r.round + 1,
		TotalRounds: len(r.quizzes),
	}
}

// tick decrements the countdown. expired is true once it reaches zero.
func (r *Room) tick() (remaining int, expired bool) {
	if r.phase != phasePending {
		return r.remaining, false
	}
	if r.remaining > 0 {
		r.remaining--
	}
	return r.remaining, r.remaining == 0
}

// recordAnswer stores the first valid answer of a player for the current
// round. ok is false when the submission must be ignored.
func (r *Room) recordAnswer(connID string, idx int) (ack domain.Answer, allAnswered bool, ok bool) {
	if r.state != domain.RoomBattle || r.phase != phasePending || !domain.ValidAnswerIndex(idx) {
		return domain.Answer{}, false, false
	}
	p := r.player(connID)
	if p == nil {
		return domain.Answer{}, false, false
	}
	if _, done := r.answered[connID]; done {
		return domain.Answer{}, false, false
	}
	r.answered[connID] = struct{}{}
	ack = domain.Answer{IsCorrect: idx == r.currentQuiz().CorrectIndex, AnswerIndex: idx}
	p.LastAnswer = &ack
	return ack, len(r.answered) == len(r.players), true
}

// beginResolve is the single compare-and-transition into RESOLVING.
func (r *Room) beginResolve() bool {
	if r.state != domain.RoomBattle || r.phase != phasePending {
		return false
	}
	r.phase = phaseResolving
	return true
}

// resolve applies the round outcome. It must follow a successful beginResolve.
func (r *Room) resolve() domain.RoundResult {
	p1, p2 := r.players[0], r.players[1]
	c1, c2 := answeredCorrectly(p1), answeredCorrectly(p2)

	result := domain.RoundResult{CorrectIndex: r.currentQuiz().CorrectIndex}
	switch {
	case c1 && !c2:
		result.OutcomeTag = domain.OutcomeSingleAttack
		result.Attacker = p1.ConnID
		p2.HP -= attackDamage
		p1.Combo++
		p2.Combo = 0
	case !c1 && c2:
		result.OutcomeTag = domain.OutcomeSingleAttack
		result.Attacker = p2.ConnID
		p1.HP -= attackDamage
		p2.Combo++
		p1.Combo = 0
	case c1 && c2:
		result.OutcomeTag = domain.OutcomeClash
		p1.HP -= clashDamage
		p2.HP -= clashDamage
		p1.Combo++
		p2.Combo++
	default:
		result.OutcomeTag = domain.OutcomeBothMiss
		p1.Combo = 0
		p2.Combo = 0
	}
	p1.HP = max(0, p1.HP)
	p2.HP = max(0, p2.HP)

	result.HP = domain.Pair{P1: p1.HP, P2: p2.HP}
	result.Combo = domain.Pair{P1: p1.Combo, P2: p2.Combo}
	result.P1AnswerIndex = answerIndex(p1)
	result.P2AnswerIndex = answerIndex(p2)
	r.phase = phaseResolved
	return result
}

// advance moves to the next round. It returns false and ends the room when
// the quizzes are exhausted or a player is out of hp.
func (r *Room) advance() bool {
	r.phase = phaseIdle
	if r.round+1 >= len(r.quizzes) || r.knockedOut() {
		r.state = domain.RoomEnded
		return false
	}
	r.round++
	return true
}

func (r *Room) knockedOut() bool {
	for _, p := range r.players {
		if p.HP <= 0 {
			return true
		}
	}
	return false
}

// outcome decides the winner by hp. Score is never incremented during play.
func (r *Room) outcome() domain.GameOver {
	p1, p2 := r.players[0], r.players[1]
	winner := domain.DrawSentinel
	switch {
	case p1.HP > p2.HP:
		winner = p1.ConnID
	case p2.HP > p1.HP:
		winner = p2.ConnID
	}
	return domain.GameOver{WinnerID: winner, Scores: domain.Pair{P1: p1.Score, P2: p2.Score}}
}

func (r *Room) end() {
	r.state = domain.RoomEnded
	r.phase = phaseIdle
}

func (r *Room) gameStart() domain.GameStart {
	return domain.GameStart{
		P1Name: r.players[0].Name,
		P2Name: r.players[1].Name,
		P1Char: r.players[0].Character,
		P2Char: r.players[1].Character,
	}
}

func (r *Room) playerUpdate() domain.PlayerUpdate {
	players := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		cp.LastAnswer = nil
		players = append(players, cp)
	}
	return domain.PlayerUpdate{Players: players}
}

func (r *Room) summary() domain.RoomSummary {
	s := domain.RoomSummary{RoomCode: r.code, OccupantCount: len(r.players)}
	if len(r.players) > 0 {
		s.HostName = r.players[0].Name
	}
	return s
}

func answeredCorrectly(p *domain.Player) bool {
	return p.LastAnswer != nil && p.LastAnswer.IsCorrect
}

func answerIndex(p *domain.Player) *int {
	if p.LastAnswer == nil {
		return nil
	}
	idx := p.LastAnswer.AnswerIndex
	return &idx
}
