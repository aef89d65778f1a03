package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Operator is a console/API account allowed to talk to the engine. The
// governance identity on the operator is what policies and quorum rules see.
type Operator struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	Identity     string     `db:"identity" json:"identity"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// LoginRequest holds credentials for authenticating an operator.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and operator info.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	Operator    OperatorInfo `json:"operator"`
	IssuedAt    time.Time    `json:"issued_at"`
}

// OperatorInfo describes the authenticated operator in responses.
type OperatorInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Identity string `json:"identity"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}
