// Command issue_token signs a bearer token with the local JWT secret so the API
// can be exercised without the identity gateway. It refuses to run when ENV is
// production.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/lostfound-api/internal/service"
	"github.com/noah-isme/lostfound-api/pkg/config"
)

func main() {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	flag.StringVar(&email, "email", "", "Campus email address to sign for")
	flag.StringVar(&name, "name", "", "Display name carried in the token")
	flag.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	token, err := mint(cfg, email, name, ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}

// mint signs a token that the API configured by cfg will accept.
func mint(cfg *config.Config, email, name string, ttl time.Duration) (string, error) {
	if cfg.Env == config.EnvProduction {
		return "", errors.New("tokens are issued by the identity gateway in production")
	}
	if email == "" {
		return "", errors.New("-email is required")
	}
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:             cfg.Auth.Secret,
		Issuer:             cfg.Auth.Issuer,
		AllowedEmailDomain: cfg.Auth.AllowedEmailDomain,
		AccessTokenExpiry:  ttl,
	}, nil, nil)
	return tokens.Issue(email, name)
}
