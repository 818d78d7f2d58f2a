package domain

import "strings"

// RoomState is the lifecycle stage of a battle room.
type RoomState string

const (
	RoomWaiting RoomState = "WAITING"
	RoomBattle  RoomState = "BATTLE"
	RoomEnded   RoomState = "ENDED"
)

// Outcome tags a resolved round.
type Outcome string

const (
	OutcomeSingleAttack Outcome = "SINGLE_ATTACK"
	OutcomeClash        Outcome = "CLASH"
	OutcomeBothMiss     Outcome = "BOTH_MISS"
)

// DrawSentinel is reported as the winner when both players finish on equal hp.
const DrawSentinel = "DRAW"

// NumOptions is the number of answer options every quiz carries.
const NumOptions = 4

// Quiz is a four-option multiple choice question.
type Quiz struct {
	Question     string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
}

// Clone returns a copy that shares no memory with q.
func (q Quiz) Clone() Quiz {
	out := q
	out.Options = append([]string(nil), q.Options...)
	return out
}

// Answer is what a player submitted for the current round.
type Answer struct {
	IsCorrect   bool `json:"isCorrect"`
	AnswerIndex int  `json:"answerIndex"`
}

// Player is a participant seated in a room.
type Player struct {
	ConnID     string  `json:"id"`
	Name       string  `json:"name"`
	Character  string  `json:"char"`
	HP         int     `json:"hp"`
	Combo      int     `json:"combo"`
	Score      int     `json:"score"`
	LastAnswer *Answer `json:"-"`
}

// Identity is the display identity a connection picks in the lobby.
type Identity struct {
	Name      string
	Character string
}

// Normalize trims both fields.
func (i Identity) Normalize() Identity {
	return Identity{Name: strings.TrimSpace(i.Name), Character: strings.TrimSpace(i.Character)}
}

// RoomSummary is the lobby view of a joinable room.
type RoomSummary struct {
	RoomCode      string `json:"roomCode"`
	HostName      string `json:"hostName"`
	OccupantCount int    `json:"occupantCount"`
}

// BulkFailure describes one rejected item of a bulk add.
type BulkFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"error"`
}

// BulkResult is the per-item breakdown of a bulk add.
type BulkResult struct {
	SuccessCount int           `json:"success"`
	FailedCount  int           `json:"failed"`
	Failures     []BulkFailure `json:"errors"`
}
