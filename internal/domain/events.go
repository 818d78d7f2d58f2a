package domain

// Outbound event types.
const (
	EventLobbyJoined  = "lobby_joined"
	EventRoomCreated  = "room_created"
	EventPlayerUpdate = "player_update"
	EventGameStart    = "game_start"
	EventNewQuiz      = "new_quiz"
	EventTimerUpdate  = "timer_update"
	EventAnswerAck    = "answer_ack"
	EventRoundResult  = "round_result"
	EventGameOver     = "game_over"
	EventPlayerLeft   = "player_left"
	EventRoomsUpdate  = "rooms_update"
	EventError        = "error_msg"
)

// Event is a typed message addressed to one or more connections.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

type PlayerUpdate struct {
	Players []Player `json:"players"`
}

type GameStart struct {
	P1Name string `json:"p1Name"`
	P2Name string `json:"p2Name"`
	P1Char string `json:"p1Char"`
	P2Char string `json:"p2Char"`
}

// NewQuiz presents a round. The correct index is never sent here.
type NewQuiz struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	RoundIndex  int      `json:"roundIndex"`
	TotalRounds int      `json:"totalRounds"`
}

type TimerUpdate struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

// Pair holds one value per seat, p1 being the room host.
type Pair struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
}

type RoundResult struct {
	OutcomeTag    Outcome `json:"outcomeTag"`
	Attacker      string  `json:"attacker,omitempty"`
	HP            Pair    `json:"hp"`
	Combo         Pair    `json:"combo"`
	CorrectIndex  int     `json:"correctIndex"`
	P1AnswerIndex *int    `json:"p1AnswerIndex,omitempty"`
	P2AnswerIndex *int    `json:"p2AnswerIndex,omitempty"`
}

type GameOver struct {
	WinnerID string `json:"winnerId"`
	Scores   Pair   `json:"scores"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

type RoomsUpdate struct {
	Rooms []RoomSummary `json:"rooms"`
}

type ErrorMsg struct {
	Text string `json:"text"`
}
