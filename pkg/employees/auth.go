package employees

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// TokenClaims represents JWT token claims
type TokenClaims struct {
	EmployeeID string     `json:"employee_id"`
	FullName   string     `json:"name"`
	Role       types.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS512 session tokens
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Expiry returns the token lifetime
func (ti *TokenIssuer) Expiry() time.Duration {
	return ti.expiry
}

// Issue generates a session token for an employee
func (ti *TokenIssuer) Issue(emp *Employee) (string, *types.Principal, error) {
	now := ti.now()
	expires := now.Add(ti.expiry)
	claims := &TokenClaims{
		EmployeeID: emp.EmployeeID,
		FullName:   emp.FullName,
		Role:       emp.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Subject:   emp.EmployeeID,
			Issuer:    "hrbackend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &types.Principal{
		EmployeeID: emp.EmployeeID,
		FullName:   emp.FullName,
		Role:       emp.Role,
		ExpiresAt:  expires,
	}, nil
}

// Parse validates a session token and returns its principal
func (ti *TokenIssuer) Parse(tokenString string) (*types.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, errors.NewInvalidTokenError(err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.EmployeeID == "" {
		return nil, errors.NewInvalidTokenError(nil)
	}

	p := &types.Principal{EmployeeID: claims.EmployeeID, FullName: claims.FullName, Role: claims.Role}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against its hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the minimum length and bcrypt's 72 byte input limit
func ValidatePassword(password string, minLength int) error {
	if len(password) < minLength {
		return errors.NewValidationError(fmt.Sprintf("password must be at least %d characters long", minLength))
	}
	if len(password) > 72 {
		return errors.NewValidationError("password must be at most 72 bytes long")
	}
	return nil
}
