// Package crypt provides the hashing puzzle solved by workers.
package crypt

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultRounds is the number of hash rounds when none is configured
const DefaultRounds = 1

// HexEncode encodes bytes to hex string
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// Hash returns the lowercase hex SHA-256 digest of text
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return HexEncode(sum[:])
}

// HashTimes applies Hash rounds times, each round hashing the previous hex
// digest. Zero rounds returns text unchanged.
func HashTimes(text string, rounds int) string {
	hashed := text
	for i := 0; i < rounds; i++ {
		hashed = Hash(hashed)
	}
	return hashed
}

// HashSolver solves a room by hashing its name a fixed number of rounds
type HashSolver struct {
	Rounds int
}

// NewHashSolver creates a solver, falling back to DefaultRounds for
// non-positive values
func NewHashSolver(rounds int) HashSolver {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return HashSolver{Rounds: rounds}
}

// Solve returns the solution for a room name
func (s HashSolver) Solve(name string) string {
	return HashTimes(name, s.Rounds)
}
