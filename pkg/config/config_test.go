package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "wit.edu", cfg.Auth.AllowedEmailDomain)
	assert.Empty(t, cfg.Auth.AdminEmails)
	assert.Equal(t, 30*24*time.Hour, cfg.Expiry.CloseAfter)
	assert.Equal(t, "@hourly", cfg.Expiry.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Stats.CacheTTL)
}

func TestFromViperNormalisesAuthSettings(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ADMIN_EMAILS", " Admin@WIT.edu, ,mod@wit.edu ")
	v.Set("ALLOWED_EMAIL_DOMAIN", "@WIT.EDU")
	v.Set("EXPIRY_CLOSE_AFTER", "not-a-duration")

	cfg := fromViper(v)
	assert.Equal(t, []string{"admin@wit.edu", "mod@wit.edu"}, cfg.Auth.AdminEmails)
	assert.Equal(t, "wit.edu", cfg.Auth.AllowedEmailDomain)
	assert.Equal(t, 30*24*time.Hour, cfg.Expiry.CloseAfter)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, ,b,"))
}
