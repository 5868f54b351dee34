// Package services contains server-side business logic. This file implements
// UserService: registration, credential verification, login-timestamp
// bookkeeping, and bearer-token issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kayvinh/messagely/internal/common"
	"github.com/Kayvinh/messagely/internal/server/auth"
	"github.com/Kayvinh/messagely/internal/server/config"
	"github.com/Kayvinh/messagely/internal/server/models"
	"github.com/Kayvinh/messagely/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
//   - Register: create users
//   - Authenticate: verify a username/password pair
//   - Login: Authenticate + RecordLogin + token minting
//   - profile and inbox/outbox reads
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	bcryptCost            int
	dummyHash             string
}

// RegisterParams carries the fields accepted at registration.
type RegisterParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	// hash burned on lookups of unknown usernames, so a missing account costs
	// the same as a wrong password
	dummy, _ := auth.HashPassword("messagely", cfg.BcryptCost)

	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		bcryptCost:            cfg.BcryptCost,
		dummyHash:             dummy,
	}
}

// Register hashes the password and creates a new user with joined_at and
// last_login_at set by the store. A duplicate username yields
// common.ErrorConflict. The returned record still carries the password hash
// for the immediate internal caller; it is never serialized outward.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if params.Username == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorConflict)
	}

	hash, err := auth.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     params.Username,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return u, nil
}

// Authenticate verifies the username/password pair. An unknown username and a
// wrong password both yield common.ErrorUnauthorized, so responses do not
// reveal whether an account exists.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = auth.CheckPassword(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// RecordLogin stamps last_login_at for a successful authentication. It fails
// with common.ErrorNotFound if the user vanished in the meantime.
func (s *UserService) RecordLogin(ctx context.Context, username string) error {
	repo := s.repomanager.Users(s.db)

	err := repo.UpdateLastLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	return nil
}

// IssueToken mints a stateless bearer token for the given username.
func (s *UserService) IssueToken(username string) (string, error) {
	token, err := auth.GenerateToken(username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Login verifies credentials, records the login timestamp, and returns a
// bearer token. A user deleted between verification and the timestamp write
// does not block issuance.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	if err := s.RecordLogin(ctx, user.Username); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	return s.IssueToken(user.Username)
}

// Get returns a user's profile. The password hash is stripped; it never
// leaves the credential-verification path.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	user.PasswordHash = ""
	return user, nil
}

// List returns basic info on all users, ordered by username.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	repo := s.repomanager.Users(s.db)

	result, err := repo.List(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return result, nil
}

// MessagesFrom returns messages sent by the user, with recipient profiles.
func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]models.MessageWithProfile, error) {
	if err := s.ensureUserExists(ctx, username); err != nil {
		return nil, err
	}

	result, err := s.repomanager.Messages(s.db).ListFrom(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return result, nil
}

// MessagesTo returns messages received by the user, with sender profiles.
func (s *UserService) MessagesTo(ctx context.Context, username string) ([]models.MessageWithProfile, error) {
	if err := s.ensureUserExists(ctx, username); err != nil {
		return nil, err
	}

	result, err := s.repomanager.Messages(s.db).ListTo(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return result, nil
}

func (s *UserService) ensureUserExists(ctx context.Context, username string) error {
	exists, err := s.repomanager.Users(s.db).Exists(ctx, username)
	if err != nil {
		return common.ErrorInternal
	}
	if !exists {
		return common.ErrorNotFound
	}
	return nil
}
