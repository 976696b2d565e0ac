// Package auth guards the write endpoints with named API tokens. Tokens
// are stored as PBKDF2-derived keys, never in the clear.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mnohosten/paperfind/pkg/container"
)

var (
	// ErrInvalidToken is returned when no stored credential matches
	ErrInvalidToken = errors.New("invalid API token")

	// ErrTokenExists is returned when creating a token under an existing name
	ErrTokenExists = errors.New("token name already exists")
)

const (
	saltLength     = 16
	iterationCount = 4096
	keyLength      = 32
)

// credential is one stored token: salt and derived key, base64 encoded.
type credential struct {
	Salt string `json:"salt"`
	Key  string `json:"key"`
}

// TokenStore verifies API tokens against PBKDF2-derived keys.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]credential
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]credential)}
}

// Create registers a token under name and returns the generated secret.
// The secret is shown once; only its derived key is retained.
func (s *TokenStore) Create(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[name]; exists {
		return "", ErrTokenExists
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(secret), salt, iterationCount, keyLength, sha256.New)
	s.tokens[name] = credential{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Key:  base64.StdEncoding.EncodeToString(key),
	}

	return secret, nil
}

// Verify checks a presented secret against every stored credential and
// returns the matching token name.
func (s *TokenStore) Verify(secret string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, cred := range s.tokens {
		salt, err := base64.StdEncoding.DecodeString(cred.Salt)
		if err != nil {
			continue
		}
		stored, err := base64.StdEncoding.DecodeString(cred.Key)
		if err != nil {
			continue
		}

		derived := pbkdf2.Key([]byte(secret), salt, iterationCount, keyLength, sha256.New)
		if hmac.Equal(derived, stored) {
			return name, nil
		}
	}

	return "", ErrInvalidToken
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Save persists the derived credentials to path.
func (s *TokenStore) Save(codec *container.Codec, path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return codec.Save(path, s.tokens)
}

// Load reads a token store from path.
func Load(codec *container.Codec, path string) (*TokenStore, error) {
	tokens := make(map[string]credential)
	if err := codec.Load(path, &tokens); err != nil {
		return nil, err
	}
	return &TokenStore{tokens: tokens}, nil
}

// Middleware rejects requests that do not carry a valid bearer token.
func (s *TokenStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "missing API token", http.StatusUnauthorized)
			return
		}

		if _, err := s.Verify(token); err != nil {
			http.Error(w, "invalid API token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
