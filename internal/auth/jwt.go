package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sourcing-marketplace-service/internal/model"
)

// Identity es la identidad autenticada que viaja por el contexto.
// El rol se resuelve una sola vez al emitir el token; ningún handler
// vuelve a comparar emails.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   model.Role
}

func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

type jwtCustomClaims struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken firma un JWT HS256 con la identidad completa.
func GenerateToken(secret string, ident Identity, ttl time.Duration) (string, error) {
	claims := &jwtCustomClaims{
		Name:  ident.Name,
		Email: ident.Email,
		Role:  ident.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken valida el token y devuelve la identidad embebida.
func ParseToken(secret, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	return Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
