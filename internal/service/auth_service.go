// Package service holds the logic that sits between HTTP handlers and the
// repositories: credential checks and domain event publishing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/repository"
	"github.com/iliyamo/car-marketplace/internal/utils"
)

var (
	// ErrUserNotFound means no user has the supplied username.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch means the password did not match the stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrUsernameTaken is returned by Register for duplicate usernames.
	ErrUsernameTaken = errors.New("username already taken")
)

// AuthService owns password hashing and verification.
type AuthService struct {
	Users         *repository.UserRepo
	BcryptCost    int
	RehashOnLogin bool
}

func NewAuthService(users *repository.UserRepo, cost int, rehashOnLogin bool) *AuthService {
	return &AuthService{Users: users, BcryptCost: cost, RehashOnLogin: rehashOnLogin}
}

// Register hashes the password and creates the user.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	hash, err := utils.HashPassword(password, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.Create(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// Authenticate checks a username/password pair. The lookup is exact and
// case-sensitive.
//
// When RehashOnLogin is set and the stored hash was made with a different
// cost, the password is re-hashed with the configured cost. A failed rehash
// is logged and does not fail the login.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrPasswordMismatch
	}
	if s.RehashOnLogin && utils.NeedsRehash(u.PasswordHash, s.BcryptCost) {
		if hash, err := utils.HashPassword(password, s.BcryptCost); err == nil {
			if err := s.Users.UpdatePassword(ctx, username, hash); err != nil {
				log.Printf("auth: rehash for %s failed: %v", username, err)
			} else {
				u.PasswordHash = hash
			}
		}
	}
	return u, nil
}

// ChangePassword replaces the user's password hash.
func (s *AuthService) ChangePassword(ctx context.Context, username, newPassword string) error {
	hash, err := utils.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// DeleteAccount removes the user together with their listings and cart rows.
// removed is false when there was no such user.
func (s *AuthService) DeleteAccount(ctx context.Context, username string) (removed bool, err error) {
	return s.Users.Delete(ctx, username)
}

// Exists reports whether the user row is still present.
func (s *AuthService) Exists(ctx context.Context, username string) (bool, error) {
	return s.Users.Exists(ctx, username)
}
