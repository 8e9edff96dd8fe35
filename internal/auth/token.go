package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token is expired")
)

// nameIdentifierClaim is the URI-form subject claim emitted by older tokens.
const nameIdentifierClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"

// subjectClaims lists every claim name the subject has historically been
// stored under. Issued tokens use "sub"; validation accepts all of them.
var subjectClaims = []string{"sub", "id", "uid", "nameid", nameIdentifierClaim}

// Claims is the identity extracted from a validated token.
type Claims struct {
	UserID   int64
	Username string
	Email    string
}

// TokenManager issues and validates signed bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue mints an HS512 token for the user, valid for the configured TTL.
func (t *TokenManager) Issue(userID int64, username, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(userID, 10),
		"name":  username,
		"email": email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return token, nil
}

// Validate checks signature and expiry and returns the embedded identity.
// Issuer and audience are deliberately not validated.
func (t *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}

		return t.secret, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenSignature
	case err != nil:
		return nil, ErrTokenMalformed
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	subject := subjectFrom(mapClaims)
	if subject == "" {
		return nil, ErrTokenMalformed
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	claims := &Claims{UserID: userID}

	if name, ok := mapClaims["name"].(string); ok {
		claims.Username = name
	}

	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}

	return claims, nil
}

func subjectFrom(claims jwt.MapClaims) string {
	for _, name := range subjectClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}

	return ""
}
