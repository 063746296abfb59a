package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lostfound-api/internal/service"
	"github.com/noah-isme/lostfound-api/pkg/config"
)

func localConfig() *config.Config {
	return &config.Config{
		Env: "development",
		Auth: config.AuthConfig{
			Secret:             "local-secret",
			AllowedEmailDomain: "wit.edu",
			AdminEmails:        []string{"admin@wit.edu"},
		},
	}
}

func TestMintIsAcceptedByTheAPI(t *testing.T) {
	cfg := localConfig()
	token, err := mint(cfg, "admin@wit.edu", "Admin", time.Minute)
	require.NoError(t, err)

	verifier := service.NewTokenService(service.TokenConfig{
		Secret:             cfg.Auth.Secret,
		AllowedEmailDomain: cfg.Auth.AllowedEmailDomain,
	}, service.NewEmailListPolicy(cfg.Auth.AdminEmails), nil)
	actor, err := verifier.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@wit.edu", actor.Email)
	assert.True(t, actor.IsAdmin)
}

func TestMintRefusesProduction(t *testing.T) {
	cfg := localConfig()
	cfg.Env = config.EnvProduction
	_, err := mint(cfg, "admin@wit.edu", "Admin", time.Minute)
	require.Error(t, err)

	_, err = mint(localConfig(), "", "", time.Minute)
	require.Error(t, err)
}
