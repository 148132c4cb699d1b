// Package admin covers the operator surface: allowlisted GitHub users log in
// with OAuth and get a bearer token, then browse recent publish activity.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/contrib-gateway/internal/domain"
	"github.com/contrib-gateway/internal/infrastructure/github"
)

// TokenSigner mints bearer tokens for authenticated admins.
type TokenSigner interface {
	Sign(login, email string) (string, error)
}

// AuditReader lists recent publish records; may be absent.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int32) ([]domain.SubmissionRecord, error)
}

// Service authenticates admins and serves their views.
type Service interface {
	// Login exchanges a GitHub OAuth code and, when the resulting identity
	// is on the admin allowlist, returns a signed bearer token.
	Login(ctx context.Context, oauthCode string) (token string, err error)
	// RecentSubmissions lists the newest publish records.
	RecentSubmissions(ctx context.Context, limit int32) ([]domain.SubmissionRecord, error)
}

type Deps struct {
	Exchanger github.Exchanger
	Signer    TokenSigner
	Audit     AuditReader // nil when the audit log is disabled

	AdminEmails []string
}

type service struct {
	Deps
}

func NewService(deps Deps) Service {
	return &service{Deps: deps}
}

func (s *service) Login(ctx context.Context, oauthCode string) (string, error) {
	if oauthCode == "" {
		return "", fmt.Errorf("missing oauth code: %w", domain.ErrValidation)
	}
	identity, err := s.Exchanger.Exchange(ctx, oauthCode)
	if err != nil {
		return "", err
	}
	if !s.isAdmin(identity.Email) {
		return "", fmt.Errorf("%s is not an admin: %w", identity.Login, domain.ErrForbidden)
	}
	return s.Signer.Sign(identity.Login, identity.Email)
}

func (s *service) RecentSubmissions(ctx context.Context, limit int32) ([]domain.SubmissionRecord, error) {
	if s.Audit == nil {
		return []domain.SubmissionRecord{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Audit.ListRecent(ctx, limit)
}

func (s *service) isAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range s.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}
