package jwtauth

import (
	"fmt"

	"github.com/Wyydra/relay/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
)

// VideoGrant mirrors the grant object media servers such as LiveKit read
// from the "video" claim.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

type AccessClaims struct {
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints HS256 access tokens. The API key is the issuer, and media
// servers look up the matching secret by it.
type Signer struct {
	apiKey string
	secret []byte
}

func NewSigner(apiKey, apiSecret string) (*Signer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("%w: api key and secret are required", domain.ErrSigningUnavailable)
	}
	return &Signer{apiKey: apiKey, secret: []byte(apiSecret)}, nil
}

func (s *Signer) Sign(grant domain.AccessGrant) (string, error) {
	caps := grant.Capabilities
	claims := &AccessClaims{
		Name: grant.DisplayName,
		Video: &VideoGrant{
			RoomJoin:     caps.Join,
			Room:         grant.Room.String(),
			CanPublish:   &caps.Publish,
			CanSubscribe: &caps.Subscribe,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.apiKey,
			Subject:   grant.Identity.String(),
			ID:        grant.ID.String(),
			IssuedAt:  jwt.NewNumericDate(grant.IssuedAt),
			NotBefore: jwt.NewNumericDate(grant.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates signature, issuer and expiry of an access token.
func (s *Signer) Parse(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.apiKey))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// SessionVerifier checks application session tokens and returns their subject.
type SessionVerifier struct {
	secret []byte
}

func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret)}
}

func (v *SessionVerifier) Verify(tokenString string) (domain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: session has no subject", domain.ErrUnauthorized)
	}
	return domain.Identity(claims.Subject), nil
}
