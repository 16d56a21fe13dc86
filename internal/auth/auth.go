// Package auth resolves users from a static users file and issues and
// verifies the bearer tokens the transport accepts.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skull-server/internal/game"
)

var (
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS: Unknown user or wrong password")
	ErrInvalidToken       = errors.New("INVALID_TOKEN: Token is invalid or expired")
)

// Account is one entry of the users file. PassHash is a bcrypt hash.
type Account struct {
	ID          string `json:"id"`
	PassHash    string `json:"passHash"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

func (a Account) User() game.User {
	return game.User{ID: a.ID, DisplayName: a.DisplayName, IsAdmin: a.IsAdmin}
}

func LoadAccounts(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}
	return accounts, nil
}

type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

type claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Store checks passwords and signs HS256 tokens for a fixed set of accounts.
type Store struct {
	cfg      Config
	accounts map[string]Account
	now      func() time.Time
}

func NewStore(accounts []Account, cfg Config) (*Store, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		if a.ID == "" {
			return nil, errors.New("auth: account without id")
		}
		if _, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("auth: duplicate account %q", a.ID)
		}
		byID[a.ID] = a
	}
	return &Store{cfg: cfg, accounts: byID, now: time.Now}, nil
}

// Login checks the password of id and returns a signed token for it.
func (s *Store) Login(id, password string) (string, game.User, error) {
	account, ok := s.accounts[id]
	if !ok {
		return "", game.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PassHash), []byte(password)); err != nil {
		return "", game.User{}, ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Name:  account.DisplayName,
		Admin: account.IsAdmin,
	})
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", game.User{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, account.User(), nil
}

// Verify checks the signature, issuer, audience and expiry of token and
// resolves its subject against the current accounts.
func (s *Store) Verify(token string) (game.User, error) {
	var parsed claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return game.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	account, ok := s.accounts[parsed.Subject]
	if !ok {
		return game.User{}, ErrInvalidToken
	}
	return account.User(), nil
}
