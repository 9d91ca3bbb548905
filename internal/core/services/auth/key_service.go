// Package auth issues and verifies API keys.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

const (
	tokenPrefix  = "wr_"
	secretBytes  = 24
	maxAttempts  = 5
	lockout      = 15 * time.Minute
	staticKeyID  = "static"
	touchTimeout = 2 * time.Second
)

// Option configures a KeyService.
type Option func(*KeyService)

// WithStaticKeyHash accepts a single configured key, given as the bcrypt hash
// of the full token. It authenticates with the admin role.
func WithStaticKeyHash(hash string) Option {
	return func(s *KeyService) { s.staticHash = strings.TrimSpace(hash) }
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *KeyService) { s.cost = cost }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *KeyService) { s.logger = l }
}

type attempts struct {
	count int
	last  time.Time
}

// KeyService implements ports.Authenticator.
// Tokens have the form "wr_<key id>.<secret>"; only bcrypt(secret) is stored.
type KeyService struct {
	repo       ports.KeyRepository
	staticHash string
	cost       int
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	failures map[string]attempts
}

// NewKeyService creates a key service. repo may be nil when only the
// static key is used.
func NewKeyService(repo ports.KeyRepository, opts ...Option) *KeyService {
	s := &KeyService{
		repo:     repo,
		cost:     bcrypt.DefaultCost,
		logger:   slog.Default(),
		now:      time.Now,
		failures: make(map[string]attempts),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether any credential source is configured.
func (s *KeyService) Enabled() bool {
	return s.repo != nil || s.staticHash != ""
}

// CreateKey provisions a key and returns the token. The token is shown once.
func (s *KeyService) CreateKey(ctx context.Context, name string, role domain.Role) (string, *domain.APIKey, error) {
	if s.repo == nil {
		return "", nil, errors.New("no key repository configured")
	}
	key, err := domain.NewAPIKey(uuid.New().String(), strings.TrimSpace(name), role)
	if err != nil {
		return "", nil, err
	}

	secret, err := newSecret()
	if err != nil {
		return "", nil, err
	}
	hash, err := s.hash(secret)
	if err != nil {
		return "", nil, err
	}
	key.Hash = hash

	if err := s.repo.SaveKey(ctx, *key); err != nil {
		return "", nil, err
	}
	s.logger.Info("API key created", "key_id", key.ID, "name", key.Name, "role", key.Role)
	return tokenPrefix + key.ID + "." + secret, key, nil
}

// Authenticate verifies token against stored keys and the static key.
func (s *KeyService) Authenticate(ctx context.Context, token string) (*domain.APIKey, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	subject := staticKeyID
	id, secret, scoped := strings.Cut(strings.TrimPrefix(token, tokenPrefix), ".")
	if scoped && strings.HasPrefix(token, tokenPrefix) {
		subject = id
	}
	if err := s.checkRateLimit(subject); err != nil {
		return nil, err
	}

	if subject != staticKeyID && s.repo != nil {
		key, err := s.repo.GetKey(ctx, id)
		if err == nil && bcrypt.CompareHashAndPassword([]byte(key.Hash), []byte(secret)) == nil {
			s.resetAttempts(subject)
			s.touch(ctx, key.ID)
			return key, nil
		}
		if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
			return nil, fmt.Errorf("failed to load api key: %w", err)
		}
	}

	if s.staticHash != "" && bcrypt.CompareHashAndPassword([]byte(s.staticHash), []byte(token)) == nil {
		s.resetAttempts(subject)
		return &domain.APIKey{ID: staticKeyID, Name: staticKeyID, Role: domain.RoleAdmin}, nil
	}

	s.incrementAttempts(subject)
	return nil, domain.ErrUnauthorized
}

// ListKeys returns stored keys without secrets.
func (s *KeyService) ListKeys(ctx context.Context) ([]domain.APIKey, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListKeys(ctx)
}

// RevokeKey deletes a key by id or name.
func (s *KeyService) RevokeKey(ctx context.Context, idOrName string) error {
	if s.repo == nil {
		return domain.ErrKeyNotFound
	}
	return s.repo.DeleteKey(ctx, idOrName)
}

// HashToken returns the bcrypt hash to configure as the static key.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}

// Private helpers

func (s *KeyService) touch(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
	defer cancel()
	if err := s.repo.TouchKey(ctx, id, s.now().UTC()); err != nil {
		s.logger.Debug("Failed to record key use", "key_id", id, "error", err)
	}
}

func (s *KeyService) checkRateLimit(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.failures[subject]
	if !ok {
		return nil
	}
	if s.now().Sub(a.last) > lockout {
		delete(s.failures, subject)
		return nil
	}
	if a.count >= maxAttempts {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *KeyService) incrementAttempts(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.failures[subject]
	a.count++
	a.last = s.now()
	s.failures[subject] = a
}

func (s *KeyService) resetAttempts(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, subject)
}

func (s *KeyService) hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

func newSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
