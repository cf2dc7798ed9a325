package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const issuer = "gopherchat"

// SignJWT issues an HS256 token whose subject is the user id and whose
// jti identifies the session.
func SignJWT(userID, sessionID string, secret []byte, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseJWT validates signature, issuer and expiry (against now) and returns the claims.
func ParseJWT(tokenStr string, secret []byte, now func() time.Time) (*jwt.RegisteredClaims, error) {
	return parse(tokenStr, secret,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
}

// parseIgnoringExpiry checks the signature but ignores expiry; used on sign-out.
func parseIgnoringExpiry(tokenStr string, secret []byte) (*jwt.RegisteredClaims, error) {
	return parse(tokenStr, secret,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func parse(tokenStr string, secret []byte, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("token is missing subject or session id")
	}
	return claims, nil
}
