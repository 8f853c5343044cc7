// Package services implements the application services sitting between the
// HTTP layer and the repositories: user accounts and the catalog of folders
// and files.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"filevault/internal/common"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

// Login failure reasons. Both unwrap to common.ErrorUnauthorized; the HTTP
// layer distinguishes them for the form error message.
var (
	ErrIncorrectEmail    = fmt.Errorf("incorrect email: %w", common.ErrorUnauthorized)
	ErrIncorrectPassword = fmt.Errorf("incorrect password: %w", common.ErrorUnauthorized)
)

// UserService registers and authenticates user accounts.
type UserService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, rm: rm}
}

// Register stores a new account with a bcrypt-hashed password. A duplicate
// email yields common.ErrorAlreadyExists; empty credentials yield
// common.ErrorValidation.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}

	user, err = s.rm.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Authenticate verifies email/password and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrIncorrectEmail
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	return user, nil
}

// GetByID resolves a session's user id back to the account, e.g. to render
// the signed-in identity on a page. common.ErrorNotFound for stale ids.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.rm.Users(s.db).GetByID(ctx, id)
}
