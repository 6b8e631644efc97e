package room

import (
	"crypto/rand"
	"math/big"
)

// Room codes and player ids are uppercase alphanumeric.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	codeLength     = 6
	playerIDLength = 8
)

func randomString(length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

// NewRoomCode generates a 6-character join code.
func NewRoomCode() (string, error) {
	return randomString(codeLength)
}

// NewPlayerID generates an 8-character player id.
func NewPlayerID() (string, error) {
	return randomString(playerIDLength)
}
