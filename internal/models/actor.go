package models

import "github.com/golang-jwt/jwt/v5"

// SystemActorEmail identifies transitions performed by background jobs.
const SystemActorEmail = "system@lostfound.internal"

// Actor is the authenticated caller as seen by authorization checks.
type Actor struct {
	Email   string `json:"email"`
	Name    string `json:"displayName"`
	IsAdmin bool   `json:"isAdmin"`
	System  bool   `json:"-"`
}

// SystemActor is used by the expiry sweeper.
func SystemActor() *Actor {
	return &Actor{Email: SystemActorEmail, Name: "expiry", System: true}
}

// IdentityClaims is the bearer token payload issued by the identity gateway.
type IdentityClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}
