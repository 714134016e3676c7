package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the token body issued by the auth service.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: token has no expiry", ErrUnauthenticated)
	}
	if !claims.ExpiresAt.After(v.now()) {
		return nil, ErrExpired
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrUnauthenticated, claims.Issuer)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrUnauthenticated)
	}
	return &Principal{
		UserID:    id,
		Name:      claims.Name,
		Email:     claims.Email,
		Phone:     claims.Phone,
		IsAdmin:   claims.Admin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
