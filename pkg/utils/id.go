package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// roomAlphabet has no 0/o, 1/l/i or URL punctuation.
const roomAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

const shortIDLen = 8

// GenShortID returns a random room code drawn from roomAlphabet.
func GenShortID() string {
	b := make([]byte, shortIDLen)
	size := big.NewInt(int64(len(roomAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return uuid.NewString()[:shortIDLen]
		}
		b[i] = roomAlphabet[n.Int64()]
	}
	return string(b)
}

// GenPlayerID returns a fresh player identifier.
func GenPlayerID() string {
	return uuid.NewString()
}
