package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned when a room code does not match an active room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a room already seats two players.
	ErrRoomFull = errors.New("room full")
	// ErrAlreadyInRoom is returned when a connection tries to create or join a second room.
	ErrAlreadyInRoom = errors.New("already in a room")
	// ErrOutOfRange indicates an admin operation addressed a quiz index that does not exist.
	ErrOutOfRange = errors.New("quiz index out of range")
	// ErrCodeSpaceExhausted is returned when no unused room code could be generated.
	ErrCodeSpaceExhausted = errors.New("no free room code")
)

// ValidationError reports the first field of a quiz or answer that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
