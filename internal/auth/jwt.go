package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/thanakrit-dev/election-be/internal/models"
)

// Claims defines the JWT claims structure shared by both token classes.
// The subject is the account ID.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates access/refresh token pairs. The two
// classes are signed with separate secrets so that leaking one secret does
// not compromise the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// MintPair issues a fresh access/refresh pair for the account.
func (m *TokenManager) MintPair(account models.Account) (models.TokenPair, error) {
	access, err := sign(account, m.accessSecret, m.accessTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := sign(account, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("signing refresh token: %w", err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess validates an access token and returns its claims.
func (m *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	return parse(tokenStr, m.accessSecret)
}

// ParseRefresh validates a refresh token and returns its claims.
func (m *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	return parse(tokenStr, m.refreshSecret)
}

func sign(account models.Account, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: account.Email,
		Role:  account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti keeps every minted token distinct even when two
			// are issued within the same second; rotation relies on the new
			// refresh token never hashing to the stored value.
			ID:        uuid.New().String(),
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parse checks signature and expiry together; claims are only trusted when
// both hold.
func parse(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// HashRefreshToken returns the hash under which a refresh token is stored.
// Refresh tokens are high-entropy signed values, so a fast digest suffices;
// only the hash ever touches the database.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyRefreshHash compares a stored hash against a presented token in
// constant time.
func VerifyRefreshHash(storedHash, token string) bool {
	if storedHash == "" {
		return false
	}
	computed := HashRefreshToken(token)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}
