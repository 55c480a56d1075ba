package auth

import (
	"context"
	"regexp"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// TokenPair is the response shape for every authentication operation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenTypeBearer is the only token type this service issues.
const TokenTypeBearer = "Bearer"

// Claims carried by both access and refresh tokens. Subject holds the
// user id in decimal form.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenService is the stateless cryptographic layer: issue and verify
// signed token pairs. Access and refresh tokens use distinct secrets and
// distinct lifetimes.
type TokenService interface {
	Issue(user *datamodel.User) (*TokenPair, error)
	VerifyAccess(token string) (*Claims, error)
	VerifyRefresh(token string) (*Claims, error)
	// Decode reads claims without verifying the signature; used by logout
	// to compute the remaining access-token TTL.
	Decode(token string) (*Claims, error)
}

// UserRepository is the credential-store surface the auth protocol needs.
// The *ForLogin lookups are the only paths that project the password hash.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*datamodel.User, error)
	FindByUsernameForLogin(ctx context.Context, username string) (*datamodel.User, error)
	FindByEmailForLogin(ctx context.Context, email string) (*datamodel.User, error)
	FindByPhoneForLogin(ctx context.Context, phone string) (*datamodel.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, user *datamodel.User) error
	UpdateLastLogin(ctx context.Context, id int64, ip string) error
}

// phonePattern matches the mobile numbers the login identifier routing
// recognizes: 11 digits, leading 1, second digit 3-9.
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// IsPhone reports whether the login identifier looks like a phone number.
func IsPhone(identifier string) bool {
	return phonePattern.MatchString(identifier)
}
