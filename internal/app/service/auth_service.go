package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"subhub/internal/common"
	"subhub/internal/common/security"
	"subhub/internal/domain/model"
	"subhub/internal/domain/repository"
	"subhub/internal/platform/metrics"
	"time"
)

type AuthService struct {
	repo     repository.RecordRepository
	codec    *security.TokenCodec
	adminKey *security.AdminKey
	ttl      time.Duration
	metrics  *metrics.Collector
}

func NewAuthService(
	repo repository.RecordRepository,
	codec *security.TokenCodec,
	adminKey *security.AdminKey,
	ttl time.Duration,
	collector *metrics.Collector,
) *AuthService {
	if ttl < time.Second {
		ttl = security.DefaultSessionTTL
	}
	return &AuthService{repo: repo, codec: codec, adminKey: adminKey, ttl: ttl, metrics: collector}
}

type LoginRequest struct {
	Credential string `json:"credential"`
}

type LoginResponse struct {
	Role model.Role `json:"role"`

	Token    string        `json:"-"`
	Lifetime time.Duration `json:"-"`
}

// Login trades the admin key or a user's uuid for a session token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	credential := strings.TrimSpace(req.Credential)
	if credential == "" {
		return nil, fmt.Errorf("missing credential: %w", common.ErrMalformedInput)
	}

	var principal model.Principal
	if s.adminKey.Matches(credential) {
		principal = model.AdminPrincipal()
	} else {
		if _, err := s.repo.Get(ctx, credential); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrInvalidCredential
			}
			return nil, fmt.Errorf("look up credential: %w", err)
		}
		principal = model.UserPrincipal(credential)
	}

	token, err := s.codec.Issue(principal, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.metrics.RecordLogin(string(principal.Role))
	return &LoginResponse{Role: principal.Role, Token: token, Lifetime: s.ttl}, nil
}
