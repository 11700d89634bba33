package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// randomly generates a unique game ID
func GenerateGameID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateClientID creates an id for an anonymous guest client
func GenerateClientID() string {
	bytes := make([]byte, 12)
	rand.Read(bytes)
	return "guest_" + hex.EncodeToString(bytes)
}
