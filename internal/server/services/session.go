// Package services contains server-side business logic. SessionService is the
// session issuer: it converts a verified identity into a token pair and keeps
// the session alive through rotation, revocation and cleanup. AccountService
// is the account-store collaborator it authenticates against.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndegtyarev/eventauth/internal/common"
	"github.com/ndegtyarev/eventauth/internal/dbx"
	"github.com/ndegtyarev/eventauth/internal/logging"
	"github.com/ndegtyarev/eventauth/internal/server/auth"
	"github.com/ndegtyarev/eventauth/internal/server/config"
	"github.com/ndegtyarev/eventauth/internal/server/models"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/refreshtokens"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token. The refresh plaintext appears here exactly once; only its digest is
// stored.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessTokenTTL   time.Duration
	RefreshExpiresAt time.Time
}

// Identity is the summary returned by access-token verification. It carries
// what the token itself attests; role and active flags come from the account
// store when the transport needs them.
type Identity struct {
	ID       string
	Username string
}

// AccountStore is the slice of the account collaborator the issuer needs.
type AccountStore interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionService orchestrates login, verification, rotation, revocation and
// expiry cleanup. All configuration is carried by the constructed value, so
// several independently configured issuers can coexist in one process.
type SessionService struct {
	db         *sql.DB
	manager    repomanager.RepositoryManager
	accounts   AccountStore
	codec      *auth.TokenCodec
	refreshTTL time.Duration
	logger     logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, accounts AccountStore, cfg *config.Config, logger logging.Logger) (*SessionService, error) {
	codec, err := auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.SigningAlgorithm, cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &SessionService{
		db:         db,
		manager:    m,
		accounts:   accounts,
		codec:      codec,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		logger:     logger.With("module", "session_service"),
	}, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
}

// Login verifies credentials via the account store and, on success, issues a
// fresh token pair. All authentication failures surface as
// common.ErrInvalidCredentials and leave no trace in storage.
func (s *SessionService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, s.manager.RefreshTokens(s.db), user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "session issued", "user_id", user.ID)
	return pair, nil
}

// VerifyAccess decodes and verifies an access token. Stateless: no storage
// access, no side effects.
func (s *SessionService) VerifyAccess(_ context.Context, token string) (*Identity, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	return &Identity{ID: claims.Subject, Username: claims.Username}, nil
}

// Refresh exchanges a refresh-token plaintext for a fresh pair, rotating the
// presented token. The revoke-and-replace step runs inside one transaction;
// the conditional revoke guarantees that concurrent calls with the same value
// produce exactly one winner, the loser failing with ErrRefreshTokenRevoked.
func (s *SessionService) Refresh(ctx context.Context, opaque string) (*TokenPair, error) {
	digest := auth.DigestOpaqueToken(opaque)

	token, err := s.manager.RefreshTokens(s.db).FindByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenInvalid
		}
		return nil, storageErr(err)
	}

	now := time.Now().UTC()
	if token.IsRevoked {
		return nil, common.ErrRefreshTokenRevoked
	}
	if !now.Before(token.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.accounts.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrRefreshTokenInvalid
	}

	var pair *TokenPair
	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.manager.RefreshTokens(tx)

		won, err := repo.Revoke(ctx, token.ID)
		if err != nil {
			return storageErr(err)
		}
		if !won {
			// Another call rotated this token first.
			return common.ErrRefreshTokenRevoked
		}

		pair, err = s.issuePair(ctx, repo, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "session rotated", "user_id", user.ID)
	return pair, nil
}

// Logout revokes the refresh token with the given plaintext. Idempotent:
// unknown and already-revoked values return (false, nil), never an error.
func (s *SessionService) Logout(ctx context.Context, opaque string) (bool, error) {
	digest := auth.DigestOpaqueToken(opaque)
	repo := s.manager.RefreshTokens(s.db)

	token, err := repo.FindByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, storageErr(err)
	}

	revoked, err := repo.Revoke(ctx, token.ID)
	if err != nil {
		return false, storageErr(err)
	}
	if revoked {
		s.logger.Info(ctx, "session revoked", "user_id", token.UserID)
	}
	return revoked, nil
}

// LogoutAll revokes every currently-usable refresh token owned by the user
// and returns the number of tokens actually transitioned.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	count, err := s.manager.RefreshTokens(s.db).RevokeAllForUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, storageErr(err)
	}
	s.logger.Info(ctx, "all sessions revoked", "user_id", userID, "count", count)
	return count, nil
}

// CleanupExpired deletes refresh tokens whose expiry is in the past,
// regardless of the revoked flag. Safe to run concurrently with everything
// else: it only removes rows that are already unusable.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.manager.RefreshTokens(s.db).DeleteExpiredBefore(ctx, time.Now().UTC())
	if err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}

// RunCleanup runs CleanupExpired on the given interval until ctx is done.
func (s *SessionService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.CleanupExpired(ctx)
			if err != nil {
				s.logger.Error(ctx, "expired token cleanup failed", "error", err.Error())
				continue
			}
			if count > 0 {
				s.logger.Info(ctx, "expired tokens removed", "count", count)
			}
		}
	}
}

// AccessTokenTTL returns the configured access-token lifetime.
func (s *SessionService) AccessTokenTTL() time.Duration {
	return s.codec.TTL()
}

// issuePair mints the access token, generates the opaque refresh value and
// persists its digest through the given repository (pooled or transactional).
func (s *SessionService) issuePair(ctx context.Context, repo refreshtokens.Repository, user *models.User) (*TokenPair, error) {
	access, err := s.codec.Encode(user.ID, user.Username)
	if err != nil {
		return nil, common.ErrorInternal
	}

	plaintext, digest, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := time.Now().UTC()
	record := &models.RefreshToken{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		TokenDigest: digest,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedAt:   now,
	}

	if err := repo.Create(ctx, record); err != nil {
		if errors.Is(err, common.ErrDigestExists) {
			// 48 random bytes colliding means something is deeply wrong.
			return nil, common.ErrorInternal
		}
		return nil, storageErr(err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     plaintext,
		AccessTokenTTL:   s.codec.TTL(),
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// withTx runs fn transactionally when a database handle is present. With the
// in-memory manager there is no transaction; the conditional revoke alone
// still guarantees single-use rotation.
func (s *SessionService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}
