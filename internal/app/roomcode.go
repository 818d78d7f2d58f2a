package app

import (
	"crypto/rand"
	"math/big"
)

// RoomCodeLength is the number of characters in a room code.
const RoomCodeLength = 5

// codeChars leaves out 0/O and 1/I so codes read back unambiguously.
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRoomCode returns a random room code. Uniqueness is checked by the caller.
func NewRoomCode() string {
	b := make([]byte, RoomCodeLength)
	limit := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
