package services

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes ergibt 256 Bit Entropie, hex-kodiert 64 Zeichen.
const tokenBytes = 32

// TokenGenerator erzeugt opake, geheime Tokens für Bestätigungs- und Abmeldelinks.
type TokenGenerator interface {
	NewToken() (string, error)
}

// RandomTokens liest aus crypto/rand.
type RandomTokens struct{}

// NewToken liefert ein neues hex-kodiertes Zufallstoken.
func (RandomTokens) NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
