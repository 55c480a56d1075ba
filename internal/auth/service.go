package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/sessioncache"
)

// Service orchestrates the credential store, the token service and the
// session cache into the login/register/refresh/logout protocol with
// single-active-session semantics.
type Service struct {
	users      UserRepository
	tokens     TokenService
	cache      sessioncache.TokenCache
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	logger     *slog.Logger
}

func NewService(users UserRepository, tokens TokenService, cache sessioncache.TokenCache, accessTTL, refreshTTL time.Duration, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		cache:      cache,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a new principal and logs it in.
func (s *Service) Register(ctx context.Context, dto RegisterDTO, clientIP string) (*TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if exists, err := s.users.UsernameExists(ctx, dto.Username); err != nil {
		return nil, internal.NewInternalError("failed to check username", err)
	} else if exists {
		return nil, internal.NewConflictError("username already exists", internal.ErrCodeDuplicateUsername)
	}

	if exists, err := s.users.EmailExists(ctx, dto.Email); err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	} else if exists {
		return nil, internal.NewConflictError("email already exists", internal.ErrCodeDuplicateEmail)
	}

	if dto.Phone != "" {
		if exists, err := s.users.PhoneExists(ctx, dto.Phone); err != nil {
			return nil, internal.NewInternalError("failed to check phone", err)
		} else if exists {
			return nil, internal.NewConflictError("phone already exists", internal.ErrCodeDuplicatePhone)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	user := &datamodel.User{
		Username:     dto.Username,
		Nickname:     dto.Nickname,
		PasswordHash: string(hash),
		Email:        dto.Email,
		Status:       datamodel.StatusActive,
		RegisterIP:   clientIP,
	}
	if dto.Phone != "" {
		user.Phone = &dto.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.issueAndStore(ctx, user)
}

// Login authenticates a credential pair and enforces the single active
// session: any prior session for this user is evicted before the new
// pointers are stored.
func (s *Service) Login(ctx context.Context, dto LoginDTO, clientIP string) (*TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	user, err := s.lookupByIdentifier(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if user.Status != datamodel.StatusActive {
		return nil, internal.ErrAccountDisabled
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, clientIP); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	// Evict the previous session before storing the new pointers; within
	// one request eviction and store are sequenced, cross-request races for
	// the same user resolve last-write-wins.
	if err := s.cache.RemoveRefreshToken(ctx, user.ID); err != nil {
		return nil, internal.NewInternalError("failed to evict previous refresh token", err)
	}
	if err := s.cache.RemoveSession(ctx, user.ID); err != nil {
		return nil, internal.NewInternalError("failed to evict previous session", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "ip", clientIP)
	return s.issueAndStore(ctx, user)
}

// Refresh rotates a token pair. The presented token must be unblacklisted,
// cryptographically valid, belong to an active principal and exactly match
// the stored pointer; it is blacklisted on use. Every failure, including
// internal ones, surfaces as the same Unauthorized error so no verification
// detail leaks.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	blacklisted, err := s.cache.IsBlacklisted(ctx, refreshToken)
	if err != nil || blacklisted {
		return nil, s.refreshDenied("blacklist check", err)
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, s.refreshDenied("signature verification", err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, s.refreshDenied("subject parse", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil || user.Status != datamodel.StatusActive {
		return nil, s.refreshDenied("principal lookup", err)
	}

	matches, err := s.cache.ValidateRefreshToken(ctx, userID, refreshToken)
	if err != nil || !matches {
		return nil, s.refreshDenied("pointer match", err)
	}

	// One-time use: the old token dies before the new pair exists.
	if err := s.cache.Blacklist(ctx, refreshToken, s.refreshTTL); err != nil {
		return nil, s.refreshDenied("blacklist old token", err)
	}

	pair, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, s.refreshDenied("token issue", err)
	}
	return pair, nil
}

func (s *Service) refreshDenied(stage string, cause error) error {
	if cause != nil {
		s.logger.Warn("refresh rejected", "stage", stage, "error", cause)
	} else {
		s.logger.Warn("refresh rejected", "stage", stage)
	}
	return internal.ErrInvalidRefresh
}

// Logout tears down the session. It never reports failure to the caller:
// on any internal error the stored pointers are still removed best-effort.
func (s *Service) Logout(ctx context.Context, userID int64, accessToken, refreshToken string) {
	remaining := s.remainingTTL(accessToken)

	if err := s.cache.ClearTokens(ctx, userID, accessToken, refreshToken, remaining); err != nil {
		s.logger.Warn("logout teardown failed, removing pointers directly", "user_id", userID, "error", err)
		if err := s.cache.RemoveRefreshToken(ctx, userID); err != nil {
			s.logger.Warn("failed to remove refresh pointer", "user_id", userID, "error", err)
		}
		if err := s.cache.RemoveSession(ctx, userID); err != nil {
			s.logger.Warn("failed to remove session pointer", "user_id", userID, "error", err)
		}
	}
}

// ValidateToken reports whether a token has not been blacklisted.
func (s *Service) ValidateToken(ctx context.Context, token string) (bool, error) {
	blacklisted, err := s.cache.IsBlacklisted(ctx, token)
	if err != nil {
		return false, err
	}
	return !blacklisted, nil
}

// AuthenticateRequestToken is the full access-token validation path used by
// the authentication middleware: signature, blacklist, session pointer,
// principal existence and status.
func (s *Service) AuthenticateRequestToken(ctx context.Context, token string) (*datamodel.User, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.cache.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, internal.NewInternalError("failed to check token blacklist", err)
	}
	if blacklisted {
		return nil, internal.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	valid, err := s.cache.IsSessionValid(ctx, userID, token)
	if err != nil {
		return nil, internal.NewInternalError("failed to validate session", err)
	}
	if !valid {
		return nil, internal.ErrSessionInvalid
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, internal.ErrInvalidToken
	}
	if user.Status != datamodel.StatusActive {
		return nil, internal.ErrAccountDisabled
	}
	return user, nil
}

// lookupByIdentifier routes the login identifier: email when it contains
// an @, phone when it matches the mobile pattern, username otherwise.
func (s *Service) lookupByIdentifier(ctx context.Context, identifier string) (*datamodel.User, error) {
	switch {
	case strings.Contains(identifier, "@"):
		return s.users.FindByEmailForLogin(ctx, identifier)
	case IsPhone(identifier):
		return s.users.FindByPhoneForLogin(ctx, identifier)
	default:
		return s.users.FindByUsernameForLogin(ctx, identifier)
	}
}

func (s *Service) issueAndStore(ctx context.Context, user *datamodel.User) (*TokenPair, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue tokens", err)
	}

	if err := s.cache.StoreRefreshToken(ctx, user.ID, pair.RefreshToken, s.refreshTTL); err != nil {
		return nil, internal.NewInternalError("failed to store refresh token", err)
	}
	if err := s.cache.StoreSession(ctx, user.ID, pair.AccessToken, s.accessTTL); err != nil {
		return nil, internal.NewInternalError("failed to store session", err)
	}
	return pair, nil
}

func (s *Service) remainingTTL(accessToken string) time.Duration {
	claims, err := s.tokens.Decode(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
