package server

import (
	crand "crypto/rand"
	"errors"
	"math/rand/v2"
)

const (
	GameIDLength   = 8
	gameIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewSecureRand returns a ChaCha8 generator seeded from crypto/rand. The
// result is not safe for concurrent use.
func NewSecureRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// GenerateGameID draws alphanumeric ids from rng until inUse rejects one.
func GenerateGameID(rng *rand.Rand, inUse func(string) bool) string {
	for {
		id := make([]byte, GameIDLength)
		for i := range id {
			id[i] = gameIDAlphabet[rng.IntN(len(gameIDAlphabet))]
		}
		if !inUse(string(id)) {
			return string(id)
		}
	}
}

func ValidateGameID(id string) error {
	if len(id) != GameIDLength {
		return errors.New("INVALID_GAME_ID: Game ID must be exactly 8 characters")
	}
	for _, ch := range id {
		isLetter := (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
		isDigit := ch >= '0' && ch <= '9'
		if !isLetter && !isDigit {
			return errors.New("INVALID_GAME_ID: Game ID must be alphanumeric")
		}
	}
	return nil
}
