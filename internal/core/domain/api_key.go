package domain

import (
	"errors"
	"time"
)

// Role defines the authorization level of an API key.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

var (
	ErrInvalidRole     = errors.New("invalid key role")
	ErrEmptyKeyName    = errors.New("key name cannot be empty")
	ErrKeyNotFound     = errors.New("api key not found")
	ErrKeyNameTaken    = errors.New("api key name already in use")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("insufficient role")
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

// ParseRole validates a role label.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// IsValid checks if the role is a recognized system role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleOperator:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// Allows reports whether r grants at least the required role.
func (r Role) Allows(required Role) bool {
	return r.rank() >= required.rank() && r.rank() > 0
}

// APIKey is a named credential for the HTTP and gRPC surfaces.
// Only the bcrypt hash of the secret is stored.
type APIKey struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	Hash      string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// NewAPIKey creates a new validated key without a secret.
func NewAPIKey(id, name string, role Role) (*APIKey, error) {
	if name == "" {
		return nil, ErrEmptyKeyName
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	return &APIKey{
		ID:        id,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate ensures the key is in a valid state.
func (k *APIKey) Validate() error {
	if k.Name == "" {
		return ErrEmptyKeyName
	}
	if !k.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
