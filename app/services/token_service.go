// Package services provides technical concerns shared by handlers and tooling, such as admin tokens
package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/amirphl/civic-portal/utils"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

const adminTokenType = "admin_access"

// TokenService issues and verifies admin JWTs. Issuance happens out of band (portalctl);
// the HTTP service only validates.
type TokenService interface {
	GenerateAdminToken(adminID uint) (string, *AdminTokenClaims, error)
	ValidateAdminToken(token string) (*AdminTokenClaims, error)
}

// AdminTokenClaims represents claims for admin JWTs
type AdminTokenClaims struct {
	AdminID   uint      `json:"admin_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"jti"`
}

type adminJWTClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenServiceImpl implements TokenService with HS256
type TokenServiceImpl struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	audience  string
}

// NewTokenService creates a new token service
func NewTokenService(secretKey string, ttl time.Duration, issuer, audience string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &TokenServiceImpl{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		issuer:    issuer,
		audience:  audience,
	}, nil
}

func (s *TokenServiceImpl) GenerateAdminToken(adminID uint) (string, *AdminTokenClaims, error) {
	if adminID == 0 {
		return "", nil, fmt.Errorf("admin id is required")
	}

	now := utils.UTCNow().Truncate(time.Second)
	claims := adminJWTClaims{
		TokenType: adminTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(adminID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &AdminTokenClaims{
		AdminID:   adminID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		TokenID:   claims.ID,
	}, nil
}

func (s *TokenServiceImpl) ValidateAdminToken(token string) (*AdminTokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	var claims adminJWTClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.TokenType != adminTokenType {
		return nil, ErrTokenInvalid
	}

	adminID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || adminID == 0 {
		return nil, ErrTokenInvalid
	}

	out := &AdminTokenClaims{
		AdminID: uint(adminID),
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
