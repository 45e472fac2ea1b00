// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login and issuing identity tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dkruglov/fileshare/internal/common"
	"github.com/dkruglov/fileshare/internal/dbx"
	"github.com/dkruglov/fileshare/internal/server/auth"
	"github.com/dkruglov/fileshare/internal/server/config"
	"github.com/dkruglov/fileshare/internal/server/models"
	"github.com/dkruglov/fileshare/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create users with a one-way-hashed password
// - Login: verify credentials and mint an identity token
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server
// config. An empty signing secret is a fatal misconfiguration.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) (*UserService, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: missing JWT secret", common.ErrConfiguration)
	}
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}, nil
}

// Register creates a new user. Only the bcrypt hash of the password is
// stored. A taken name or email yields common.ErrAlreadyExists. The email
// check and the insert run in one transaction; the unique constraints are
// what actually closes the race.
func (s *UserService) Register(ctx context.Context, name, password, email string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		count, err := repo.CountByEmail(ctx, email)
		if err != nil {
			return err
		}
		if count > 0 {
			return common.ErrAlreadyExists
		}

		user := &models.User{Name: name, Email: email, Password: string(hash)}
		created, err = repo.Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return err
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login verifies the password against the stored hash and, on success,
// returns a signed identity token. Unknown names and wrong passwords both
// collapse into common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, name, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.IssueToken(user.Name, user.Email, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}
