package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DownloadTokenBytes is the entropy of a download token before encoding.
	DownloadTokenBytes = 32
	// bcrypt cost stays at the library default; download links are
	// long-lived but low-value compared to credentials.
	tokenHashCost = bcrypt.DefaultCost
)

// GenerateDownloadToken returns a URL-safe random token. The clear value
// is emailed to the buyer once; only the hash is persisted.
func GenerateDownloadToken() (string, error) {
	buf := make([]byte, DownloadTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashDownloadToken produces the bcrypt hash stored alongside the link.
func HashDownloadToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), tokenHashCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// VerifyDownloadToken reports whether the presented token matches the hash.
func VerifyDownloadToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
