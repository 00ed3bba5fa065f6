package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims are the claims the backend embeds in the enumerator's
// session token at enrollment. The agent only validates these tokens,
// it never issues them; an offline device keeps accepting the token it
// has until expiry.
type OperatorClaims struct {
	OperatorID string `json:"operator_id"`
	Name       string `json:"name"`
	District   string `json:"district"`
	jwt.RegisteredClaims
}

// JWTManager validates backend-issued operator tokens against the
// shared secret provisioned on the device.
type JWTManager struct {
	secret []byte
}

func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret)}
}

// ValidateToken verifies an operator token and returns its claims.
func (j *JWTManager) ValidateToken(tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.OperatorID == "" {
		return nil, errors.New("not an operator token")
	}
	return claims, nil
}
