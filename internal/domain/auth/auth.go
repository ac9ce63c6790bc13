package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleEmployee      = "employee"
	RoleManager       = "manager"
	RoleSeniorManager = "senior_manager"
	RoleHR            = "hr"
	RoleAdmin         = "admin"
	RoleSuperAdmin    = "super_admin"
)

// UserContext identifies the authenticated actor for the lifetime of a
// request. Tokens are issued by the external identity provider; this
// service only verifies them.
type UserContext struct {
	EmployeeID string
	Role       string
}

type Claims struct {
	EmployeeID string `json:"sub"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the role carries unconditional approval
// authority in every domain.
func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

func IsKnownRole(role string) bool {
	switch role {
	case RoleEmployee, RoleManager, RoleSeniorManager, RoleHR, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
