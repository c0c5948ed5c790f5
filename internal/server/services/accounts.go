package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndegtyarev/eventauth/internal/common"
	"github.com/ndegtyarev/eventauth/internal/logging"
	"github.com/ndegtyarev/eventauth/internal/server/models"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/repomanager"
)

// dummyPasswordHash is compared against when the username is unknown, so the
// unknown-user path costs roughly the same as a wrong-password path.
var dummyPasswordHash []byte

func init() {
	h, err := bcrypt.GenerateFromPassword([]byte("eventauth-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	dummyPasswordHash = h
}

// AccountService implements the account-store collaborator: it owns account
// rows and password verification. The session service consumes it through
// the AccountStore interface and never touches password material itself.
type AccountService struct {
	db      *sql.DB
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AccountService {
	return &AccountService{
		db:      db,
		manager: m,
		logger:  logger.With("module", "account_service"),
	}
}

// Register creates an account with a bcrypt-hashed password. New accounts are
// active and non-admin.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.manager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, storageErr(err)
	}
	return created, nil
}

// Authenticate verifies a username/password pair. Unknown user, wrong
// password and deactivated account all return common.ErrInvalidCredentials;
// the caller cannot distinguish them.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.manager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, storageErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// GetByID returns the account for the given id, or common.ErrorNotFound.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.manager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageErr(err)
	}
	return user, nil
}
