package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"quiz-battle-service/internal/domain"
)

// Inbound message types.
const (
	msgJoinLobby    = "join_lobby"
	msgCreateRoom   = "create_room"
	msgJoinRoom     = "join_room"
	msgSubmitAnswer = "submit_answer"
)

const maxNameLength = 32

var errUnsupportedType = errors.New("unsupported message type")

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// command is one of the closed set of inbound variants below.
type command interface {
	validate() error
}

type joinLobby struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

// UnmarshalJSON also accepts a bare string, taken as the name.
func (j *joinLobby) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &j.Name)
	}
	type plain joinLobby
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*j = joinLobby(p)
	return nil
}

func (j joinLobby) validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(j.Name)) > maxNameLength {
		return &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}
	if utf8.RuneCountInString(strings.TrimSpace(j.Character)) > maxNameLength {
		return &domain.ValidationError{Field: "character", Reason: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}
	return nil
}

type createRoom struct{}

func (createRoom) validate() error { return nil }

type joinRoom struct {
	RoomCode string `json:"roomCode"`
}

func (j joinRoom) validate() error {
	if strings.TrimSpace(j.RoomCode) == "" {
		return &domain.ValidationError{Field: "roomCode", Reason: "must be a non-empty string"}
	}
	return nil
}

type submitAnswer struct {
	RoomCode    string `json:"roomCode"`
	AnswerIndex *int   `json:"answerIndex"`
}

func (s submitAnswer) validate() error {
	if strings.TrimSpace(s.RoomCode) == "" {
		return &domain.ValidationError{Field: "roomCode", Reason: "must be a non-empty string"}
	}
	if s.AnswerIndex == nil || !domain.ValidAnswerIndex(*s.AnswerIndex) {
		return &domain.ValidationError{Field: "answerIndex", Reason: fmt.Sprintf("must be between 0 and %d", domain.NumOptions-1)}
	}
	return nil
}

// decodeCommand parses and validates one frame. The message type is returned
// even when the payload is rejected.
func decodeCommand(data []byte) (string, command, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", nil, fmt.Errorf("invalid message: %w", err)
	}

	var cmd command
	switch msg.Type {
	case msgJoinLobby:
		cmd = &joinLobby{}
	case msgCreateRoom:
		return msg.Type, createRoom{}, nil
	case msgJoinRoom:
		cmd = &joinRoom{}
	case msgSubmitAnswer:
		cmd = &submitAnswer{}
	default:
		return msg.Type, nil, errUnsupportedType
	}

	if len(msg.Payload) > 0 && !bytes.Equal(msg.Payload, []byte("null")) {
		if err := json.Unmarshal(msg.Payload, cmd); err != nil {
			return msg.Type, nil, fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
	}
	if err := cmd.validate(); err != nil {
		return msg.Type, nil, err
	}
	return msg.Type, cmd, nil
}
