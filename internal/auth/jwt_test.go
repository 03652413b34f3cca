package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanakrit-dev/election-be/internal/models"
)

func testManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func testAccount() models.Account {
	return models.Account{ID: "acc-1", Email: "voter@example.com", Role: models.RoleCandidate}
}

func TestMintPairClaimsRoundTrip(t *testing.T) {
	m := testManager()
	pair, err := m.MintPair(testAccount())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := m.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "voter@example.com", claims.Email)
	assert.Equal(t, models.RoleCandidate, claims.Role)

	refreshClaims, err := m.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", refreshClaims.Subject)
}

func TestMintedTokensAreUniquePerIssuance(t *testing.T) {
	m := testManager()
	account := testAccount()

	// Two pairs minted back to back land in the same second, so iat/exp
	// alone cannot distinguish them. Rotation depends on the new refresh
	// token differing from the one it replaces.
	first, err := m.MintPair(account)
	require.NoError(t, err)
	second, err := m.MintPair(account)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, HashRefreshToken(first.RefreshToken), HashRefreshToken(second.RefreshToken))

	claims, err := m.ParseRefresh(first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	m := testManager()
	pair, err := m.MintPair(testAccount())
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = m.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	pair, err := m.MintPair(testAccount())
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	m := testManager()
	pair, err := m.MintPair(testAccount())
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = m.ParseAccess(tampered)
	assert.Error(t, err)
}

func TestRefreshHashVerification(t *testing.T) {
	token := "some.refresh.token"
	hash := HashRefreshToken(token)

	assert.True(t, VerifyRefreshHash(hash, token))
	assert.False(t, VerifyRefreshHash(hash, "another.token"))
	assert.False(t, VerifyRefreshHash("", token))
}
