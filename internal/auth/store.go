package auth

import (
	"context"
	"strings"
)

// UserStore manages persisted accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*User, error)
}

// ValidateUser enforces account invariants at the data layer: a non-admin
// user must carry exactly one home tenant.
func ValidateUser(u *User) error {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return ErrInvalidInput
	}
	if u.Role != RoleAdmin && u.Role != RoleUser {
		return ErrInvalidInput
	}
	if u.Role == RoleUser && strings.TrimSpace(u.HomeTenantID) == "" {
		return ErrInvalidInput
	}
	return nil
}

// Login verifies credentials against the store and returns the principal
// snapshot to embed in a fresh session. Every failure mode reads as
// ErrInvalidCredentials so the response does not reveal whether the account
// exists.
func Login(ctx context.Context, store UserStore, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Principal{}, ErrInvalidCredentials
	}
	user, err := store.FindByEmail(ctx, email)
	if err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return user.Principal(), nil
}
