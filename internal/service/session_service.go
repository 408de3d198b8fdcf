package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"feeds/internal/cache"
	"feeds/internal/featureflags"
	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/observability"
	"feeds/internal/repository"
	"feeds/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// sessionTokenBytes is the entropy of a session token before hex encoding.
const sessionTokenBytes = 32

// SessionConfig tunes credential hashing and the session cache.
type SessionConfig struct {
	BcryptCost int
	CacheTTL   time.Duration
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// SessionService owns credentials and the single active session per user.
type SessionService struct {
	users repository.UserRepository
	rdb   *redis.Client
	flags *featureflags.Manager
	cfg   SessionConfig

	dummyOnce sync.Once
	dummyHash []byte
}

// NewSessionService returns a SessionService. rdb and flags may be nil.
func NewSessionService(users repository.UserRepository, rdb *redis.Client, flags *featureflags.Manager, cfg SessionConfig) *SessionService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &SessionService{users: users, rdb: rdb, flags: flags, cfg: cfg}
}

// Register validates and stores a new account.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "new_user_id", user.ID)
	return user, nil
}

// IssueSession verifies credentials and replaces the user's session token.
// Unknown email and wrong password fail identically.
func (s *SessionService) IssueSession(ctx context.Context, email, password string) (_ string, _ *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "SessionService.IssueSession")
	defer func() { observability.EndSpan(span, err) }()

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.ErrorCode(err) != models.CodeNotFound {
			return "", nil, err
		}
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		observability.LoginFailures.Inc()
		return "", nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.LoginFailures.Inc()
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}

	previous := user.SessionToken
	if err := s.users.SetSessionToken(ctx, user.ID, &token); err != nil {
		return "", nil, err
	}
	user.SessionToken = &token

	s.claimSession(ctx, user.ID, token)
	if previous != nil && *previous != "" {
		cache.Invalidate(ctx, s.rdb, cache.SessionKey(*previous))
	}
	s.cacheSession(ctx, user.ID, token)

	observability.SessionsIssued.Inc()
	middleware.Logger.InfoContext(middleware.WithUserID(ctx, user.ID), "session issued")
	return token, user, nil
}

// ResolveSession maps a token to its user id. Tokens that match no user
// yield an Unauthorized error.
func (s *SessionService) ResolveSession(ctx context.Context, token string) (_ uint, err error) {
	ctx, span := observability.StartSpan(ctx, "SessionService.ResolveSession")
	defer func() { observability.EndSpan(span, err) }()

	if token == "" {
		return 0, models.NewUnauthorizedError("Not authenticated")
	}

	if userID, ok := s.cachedSession(ctx, token); ok {
		observability.SessionCacheLookups.WithLabelValues("hit").Inc()
		return userID, nil
	}

	user, err := s.users.GetBySessionToken(ctx, token)
	if err != nil {
		observability.SessionCacheLookups.WithLabelValues("miss").Inc()
		if models.ErrorCode(err) == models.CodeUnauthorized {
			return 0, models.NewUnauthorizedError("Not authenticated")
		}
		return 0, err
	}
	observability.SessionCacheLookups.WithLabelValues("db").Inc()

	// A login or logout that ran after the read above has already claimed
	// the owner key, so this fill cannot resurrect a replaced token.
	if s.rdb != nil {
		if err := s.rdb.SetNX(ctx, cache.UserSessionKey(user.ID), token, s.cfg.CacheTTL).Err(); err != nil {
			middleware.Logger.WarnContext(ctx, "session cache write failed", "error", err.Error())
		}
	}
	s.cacheSession(ctx, user.ID, token)
	return user.ID, nil
}

// cachedSession returns the user cached for token. An entry only counts
// while token is still the user's current one.
func (s *SessionService) cachedSession(ctx context.Context, token string) (uint, bool) {
	if s.rdb == nil {
		return 0, false
	}
	key := cache.SessionKey(token)
	userID, err := s.rdb.Get(ctx, key).Uint64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "session cache read failed", "error", err.Error())
		}
		return 0, false
	}
	current, err := s.rdb.Get(ctx, cache.UserSessionKey(uint(userID))).Result()
	if err != nil || current != token {
		cache.Invalidate(ctx, s.rdb, key)
		return 0, false
	}
	return uint(userID), true
}

// claimSession records token as userID's current session. An empty token
// marks the user as logged out.
func (s *SessionService) claimSession(ctx context.Context, userID uint, token string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, cache.UserSessionKey(userID), token, s.cfg.CacheTTL).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "session cache write failed", "error", err.Error())
	}
}

func (s *SessionService) cacheSession(ctx context.Context, userID uint, token string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, cache.SessionKey(token), userID, s.cfg.CacheTTL).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "session cache write failed", "error", err.Error())
	}
}

// CheckSession resolves token to the full user record.
func (s *SessionService) CheckSession(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthorizedError("Not authenticated")
		}
		return nil, err
	}
	return user, nil
}

// RevokeSession ends a session. The cookie is always cleared by the caller;
// the stored token is cleared only when the logout_revoke flag is on for the
// user, otherwise it stays valid until the next login.
func (s *SessionService) RevokeSession(ctx context.Context, userID uint, token string) (err error) {
	if token == "" || !s.flags.Enabled(featureflags.LogoutRevoke, userID) {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "SessionService.RevokeSession")
	defer func() { observability.EndSpan(span, err) }()

	if err := s.users.ClearSessionToken(ctx, token); err != nil {
		return err
	}
	s.claimSession(ctx, userID, "")
	cache.Invalidate(ctx, s.rdb, cache.SessionKey(token))
	middleware.Logger.InfoContext(middleware.WithUserID(ctx, userID), "session revoked")
	return nil
}

func (s *SessionService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("invalid-credentials-placeholder"), s.cfg.BcryptCost)
	})
	return s.dummyHash
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
