package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
)

// AdminPolicy decides who may moderate.
type AdminPolicy interface {
	IsAdmin(email string) bool
}

// EmailListPolicy grants admin to a fixed set of addresses.
type EmailListPolicy struct {
	emails map[string]struct{}
}

// NewEmailListPolicy builds a case-insensitive allow list.
func NewEmailListPolicy(emails []string) *EmailListPolicy {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = struct{}{}
		}
	}
	return &EmailListPolicy{emails: set}
}

// IsAdmin implements AdminPolicy.
func (p *EmailListPolicy) IsAdmin(email string) bool {
	if p == nil {
		return false
	}
	_, ok := p.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// TokenConfig configures bearer token verification.
type TokenConfig struct {
	Secret             string
	Issuer             string
	AllowedEmailDomain string
	AccessTokenExpiry  time.Duration
}

// TokenService verifies identity-gateway tokens and turns them into actors.
// Only members of the campus email domain are admitted.
type TokenService struct {
	config TokenConfig
	policy AdminPolicy
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService constructs the service.
func NewTokenService(cfg TokenConfig, policy AdminPolicy, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = NewEmailListPolicy(nil)
	}
	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = time.Hour
	}
	cfg.AllowedEmailDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cfg.AllowedEmailDomain)), "@")
	return &TokenService{config: cfg, policy: policy, logger: logger, now: time.Now}
}

// Authenticate validates tokenString and returns the caller.
func (s *TokenService) Authenticate(tokenString string) (*models.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has no email")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "email address is not verified")
	}
	if !s.domainAllowed(email) {
		s.logger.Info("rejected non-campus account", zap.String("email", email))
		return nil, appErrors.Clone(appErrors.ErrDomainNotAllowed, fmt.Sprintf("only @%s accounts are allowed", s.config.AllowedEmailDomain))
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	return &models.Actor{Email: email, Name: name, IsAdmin: s.policy.IsAdmin(email)}, nil
}

// Issue signs a token for email. The gateway normally does this; the API only
// uses it for local tooling and tests.
func (s *TokenService) Issue(email, name string) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.IdentityClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *TokenService) domainAllowed(email string) bool {
	if s.config.AllowedEmailDomain == "" {
		return true
	}
	return strings.HasSuffix(email, "@"+s.config.AllowedEmailDomain)
}
