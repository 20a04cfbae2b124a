package jwtauth

import (
	"testing"
	"time"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newGrant(ttl time.Duration) domain.AccessGrant {
	return domain.NewAccessGrant("u1", "u1-u2", "Alice", time.Now(), ttl)
}

func TestSigner_SignAndParse(t *testing.T) {
	req := require.New(t)
	signer, err := NewSigner("key", "a-long-enough-secret-for-tests")
	req.NoError(err)

	grant := newGrant(10 * time.Minute)
	token, err := signer.Sign(grant)
	req.NoError(err)

	claims, err := signer.Parse(token)
	req.NoError(err)
	req.Equal("u1", claims.Subject)
	req.Equal("key", claims.Issuer)
	req.Equal(grant.ID.String(), claims.ID)
	req.Equal("Alice", claims.Name)
	req.NotNil(claims.Video)
	req.True(claims.Video.RoomJoin)
	req.Equal("u1-u2", claims.Video.Room)
	req.True(*claims.Video.CanPublish)
	req.True(*claims.Video.CanSubscribe)
	req.WithinDuration(grant.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestSigner_TokensForSamePairDiffer(t *testing.T) {
	req := require.New(t)
	signer, err := NewSigner("key", "secret")
	req.NoError(err)

	a, err := signer.Sign(newGrant(time.Minute))
	req.NoError(err)
	b, err := signer.Sign(newGrant(time.Minute))
	req.NoError(err)
	req.NotEqual(a, b)

	_, err = signer.Parse(a)
	req.NoError(err)
	_, err = signer.Parse(b)
	req.NoError(err)
}

func TestSigner_RejectsForeignAndExpiredTokens(t *testing.T) {
	req := require.New(t)
	signer, _ := NewSigner("key", "secret")
	other, _ := NewSigner("key", "other-secret")

	token, err := other.Sign(newGrant(time.Minute))
	req.NoError(err)
	_, err = signer.Parse(token)
	req.ErrorIs(err, jwt.ErrTokenSignatureInvalid)

	expired := domain.NewAccessGrant("u1", "u1-u2", "", time.Now().Add(-time.Hour), time.Minute)
	token, err = signer.Sign(expired)
	req.NoError(err)
	_, err = signer.Parse(token)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func TestNewSigner_RequiresCredentials(t *testing.T) {
	_, err := NewSigner("", "secret")
	require.ErrorIs(t, err, domain.ErrSigningUnavailable)
	_, err = NewSigner("key", "")
	require.ErrorIs(t, err, domain.ErrSigningUnavailable)
}

func sessionToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestSessionVerifier(t *testing.T) {
	req := require.New(t)
	v := NewSessionVerifier("session-secret")

	id, err := v.Verify(sessionToken(t, "session-secret", "u1", time.Now().Add(time.Hour)))
	req.NoError(err)
	req.Equal(domain.Identity("u1"), id)

	_, err = v.Verify(sessionToken(t, "wrong", "u1", time.Now().Add(time.Hour)))
	req.ErrorIs(err, domain.ErrUnauthorized)

	_, err = v.Verify(sessionToken(t, "session-secret", "u1", time.Now().Add(-time.Hour)))
	req.ErrorIs(err, domain.ErrUnauthorized)

	_, err = v.Verify(sessionToken(t, "session-secret", "", time.Now().Add(time.Hour)))
	req.ErrorIs(err, domain.ErrUnauthorized)

	_, err = v.Verify("not-a-jwt")
	req.ErrorIs(err, domain.ErrUnauthorized)
}
