package http

import (
	"context"
	"time"

	"github.com/contrib-gateway/internal/application/admin"
	"github.com/contrib-gateway/internal/application/submission"
	"github.com/contrib-gateway/internal/infrastructure/github"
	jwtinfra "github.com/contrib-gateway/internal/infrastructure/jwt"
	"github.com/contrib-gateway/internal/infrastructure/smtp"
	"github.com/contrib-gateway/internal/infrastructure/sns"
)

// Stager is the share-file staging backend the router requires.
type Stager interface {
	Stage(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error)
}

// AuditStore is the audit log the router requires: written by the submission
// workflow, read back by the admin surface.
type AuditStore interface {
	submission.AuditLog
	admin.AuditReader
}

// Deps holds all infrastructure dependencies for the router. Alerts, Audit
// and JWTProvider are optional; when absent the routes depending on them
// degrade (no alerts, empty audit listing, admin surface disabled).
type Deps struct {
	Codes       submission.CodeStore
	Exchanger   github.Exchanger
	Publisher   github.Publisher
	Mailer      smtp.Mailer
	Stager      Stager
	Alerts      sns.AlertPublisher
	Audit       AuditStore
	JWTProvider *jwtinfra.Provider
}
