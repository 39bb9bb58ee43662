// Package auth issues and validates the HS256 JWTs of the aliasd API.
//
// A login yields two tokens that differ only in lifetime and in the
// token_type claim: an access token, sent on API calls, and a refresh token,
// exchanged for a new pair.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marmos91/aliasd/pkg/models"
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

const (
	defaultIssuer     = "aliasd"
	defaultAccessTTL  = 7 * 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrWrongTokenType      = errors.New("wrong token type")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = fmt.Errorf("JWT secret must be at least %d characters", MinSecretLength)
)

// TokenType is the token_type claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims of both token types. Subject mirrors Username.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uint      `json:"uid"`
	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
}

// JWTConfig configures a JWTService. Zero durations and an empty issuer take
// the defaults: 7 days, 30 days and "aliasd".
type JWTConfig struct {
	Secret               string
	Issuer               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// TokenPair is what a login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// JWTService signs and verifies tokens with one shared secret.
type JWTService struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

// NewJWTService returns ErrInvalidSecretLength for a short secret.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}

	s := &JWTService{
		key:        []byte(cfg.Secret),
		issuer:     orDefault(cfg.Issuer, defaultIssuer),
		accessTTL:  orDefault(cfg.AccessTokenDuration, defaultAccessTTL),
		refreshTTL: orDefault(cfg.RefreshTokenDuration, defaultRefreshTTL),
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	return s, nil
}

func orDefault[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

// AccessTokenDuration is the lifetime of access tokens.
func (s *JWTService) AccessTokenDuration() time.Duration {
	return s.accessTTL
}

// GenerateTokenPair signs a fresh access and refresh token for user.
func (s *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access, err := s.sign(user, TokenTypeAccess, now, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	refresh, err := s.sign(user, TokenTypeRefresh, now, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL / time.Second),
		ExpiresAt:    now.Add(s.accessTTL),
	}, nil
}

func (s *JWTService) sign(user *models.User, kind TokenType, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: kind,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", ErrTokenSigningFailed
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer and expiry of a token of either
// type. Expired tokens yield ErrExpiredToken; anything else wrong yields
// ErrInvalidToken.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken is ValidateToken restricted to access tokens.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	return s.validateKind(raw, TokenTypeAccess)
}

// ValidateRefreshToken is ValidateToken restricted to refresh tokens.
func (s *JWTService) ValidateRefreshToken(raw string) (*Claims, error) {
	return s.validateKind(raw, TokenTypeRefresh)
}

func (s *JWTService) validateKind(raw string, want TokenType) (*Claims, error) {
	claims, err := s.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
