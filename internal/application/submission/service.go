// Package submission orchestrates the authorization and publish workflow:
// a request is accepted only when the email one-time code and the GitHub
// OAuth exchange both check out, and only then is its content written to the
// target repository.
package submission

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/contrib-gateway/internal/domain"
	"github.com/contrib-gateway/internal/infrastructure/github"
	"github.com/contrib-gateway/internal/infrastructure/smtp"
	"github.com/contrib-gateway/internal/infrastructure/sns"
	"github.com/contrib-gateway/internal/pkg/id"
	"github.com/contrib-gateway/internal/pkg/post"
	"github.com/contrib-gateway/internal/pkg/validate"
)

// AttachmentInput is one image as it arrives on the wire.
type AttachmentInput struct {
	Name        string `json:"name" validate:"required"`
	ContentType string `json:"content_type"`
	Data        string `json:"data" validate:"required"` // base64, optionally a data: URL
}

// Request is the submit payload.
type Request struct {
	Address     string            `json:"address" validate:"required,email"`
	Code        string            `json:"code" validate:"required"`
	OAuthCode   string            `json:"oauth_code" validate:"required"`
	Title       string            `json:"title" validate:"required,max=200"`
	Body        string            `json:"body" validate:"required"`
	Tags        []string          `json:"tags"`
	Attachments []AttachmentInput `json:"attachments" validate:"dive"`
}

// CodeStore is the verification-code table the orchestrator consumes.
type CodeStore interface {
	Issue(address string) (code string, expiresAt time.Time, err error)
	Validate(address, code string) error
	Remove(address string)
}

// AuditLog records publish attempts; may be absent.
type AuditLog interface {
	Put(ctx context.Context, rec *domain.SubmissionRecord) error
}

// Service runs the two-proof submission workflow.
type Service interface {
	// RequestCode issues a one-time code for address and mails it there.
	RequestCode(ctx context.Context, address string) error
	// Submit validates, authorizes and publishes one submission.
	Submit(ctx context.Context, req Request) (*domain.PublishResult, error)
}

// Deps are the orchestrator's collaborators. Alerts and Audit may be nil.
type Deps struct {
	Codes     CodeStore
	Exchanger github.Exchanger
	Publisher github.Publisher
	Mailer    smtp.Mailer
	Alerts    sns.AlertPublisher
	Audit     AuditLog

	AdminEmails          []string
	ContentDir           string
	CodeTTL              time.Duration
	RequireIdentityMatch bool
	MaxAttachments       int
	MaxAttachmentBytes   int64
}

type service struct {
	Deps
}

func NewService(deps Deps) Service {
	return &service{Deps: deps}
}

func (s *service) RequestCode(ctx context.Context, address string) error {
	if !validate.Email(address) {
		return fmt.Errorf("malformed address: %w", domain.ErrValidation)
	}
	code, _, err := s.Codes.Issue(address)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Your verification code is %s.\nIt expires in %d minutes.",
		code, int(s.CodeTTL.Minutes()))
	if err := s.Mailer.SendEmail(address, "Your verification code", body); err != nil {
		// The code never reached the caller; withdraw it so a retry is not
		// stuck behind the resend cooldown.
		s.Codes.Remove(address)
		return err
	}
	return nil
}

func (s *service) Submit(ctx context.Context, req Request) (*domain.PublishResult, error) {
	payload, err := s.buildPayload(req)
	if err != nil {
		return nil, err
	}

	if err := s.Codes.Validate(req.Address, req.Code); err != nil {
		return nil, err
	}

	identity, err := s.Exchanger.Exchange(ctx, req.OAuthCode)
	if err != nil {
		return nil, err
	}
	if s.RequireIdentityMatch && !strings.EqualFold(identity.Email, req.Address) {
		return nil, fmt.Errorf("oauth identity does not match verified address: %w",
			domain.ErrIdentityMismatch)
	}
	payload.AuthorLogin = identity.Login

	result, err := s.publish(ctx, payload)
	s.record(ctx, payload, result, err)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, payload, result)
	return result, nil
}

// buildPayload structurally validates the request and decodes attachments.
// No external call is made before this passes.
func (s *service) buildPayload(req Request) (*domain.SubmissionPayload, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("empty body: %w", domain.ErrValidation)
	}
	if post.Slug(req.Title) == "" {
		return nil, fmt.Errorf("title has no usable characters: %w", domain.ErrValidation)
	}
	if len(req.Attachments) > s.MaxAttachments {
		return nil, fmt.Errorf("too many attachments (max %d): %w",
			s.MaxAttachments, domain.ErrValidation)
	}

	attachments := make([]domain.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		name := path.Base(a.Name)
		if name == "" || name == "." || name == ".." {
			return nil, fmt.Errorf("bad attachment name: %w", domain.ErrValidation)
		}
		raw := a.Data
		if i := strings.Index(raw, ";base64,"); i >= 0 {
			raw = raw[i+len(";base64,"):]
		}
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("attachment %s is not valid base64: %w",
				name, domain.ErrValidation)
		}
		if int64(len(data)) > s.MaxAttachmentBytes {
			return nil, fmt.Errorf("attachment %s exceeds %d bytes: %w",
				name, s.MaxAttachmentBytes, domain.ErrValidation)
		}
		attachments = append(attachments, domain.Attachment{
			Name:        name,
			ContentType: a.ContentType,
			Data:        data,
		})
	}

	return &domain.SubmissionPayload{
		AuthorEmail: req.Address,
		Title:       req.Title,
		Body:        req.Body,
		Tags:        req.Tags,
		Attachments: attachments,
	}, nil
}

// publish writes the post body first, then attachments in order. The
// repository offers no multi-file transaction: a failure after the first
// successful write surfaces as PartialPublishError carrying the committed
// paths, and nothing already written is rolled back.
func (s *service) publish(ctx context.Context, p *domain.SubmissionPayload) (*domain.PublishResult, error) {
	slug := post.Slug(p.Title)
	cover := ""
	if len(p.Attachments) > 0 {
		cover = p.Attachments[0].Name
	}
	doc := post.Post{
		Title:  p.Title,
		Author: p.AuthorLogin,
		Tags:   p.Tags,
		Cover:  cover,
		Body:   p.Body,
	}

	type write struct {
		path    string
		content []byte
	}
	writes := []write{{
		path:    path.Join(s.ContentDir, slug+".md"),
		content: []byte(doc.Render(time.Now())),
	}}
	for _, a := range p.Attachments {
		writes = append(writes, write{
			path:    path.Join(s.ContentDir, slug, a.Name),
			content: a.Data,
		})
	}

	message := fmt.Sprintf("Add submission: %s (by %s)", p.Title, p.AuthorLogin)
	var committed []string
	var last *domain.Commit
	for _, w := range writes {
		commit, err := s.Publisher.Publish(ctx, w.path, w.content, message)
		if err != nil {
			if len(committed) == 0 {
				return nil, err
			}
			return nil, &domain.PartialPublishError{
				Committed:  committed,
				FailedPath: w.path,
				Cause:      err,
			}
		}
		committed = append(committed, w.path)
		last = commit
	}

	return &domain.PublishResult{CommitSHA: last.SHA, Paths: committed}, nil
}

// record appends an audit entry for completed and partial publishes.
// Audit failures are logged, never surfaced to the contributor.
func (s *service) record(ctx context.Context, p *domain.SubmissionPayload, result *domain.PublishResult, pubErr error) {
	if s.Audit == nil {
		return
	}
	rec := &domain.SubmissionRecord{
		SubmissionID: id.New(),
		AuthorEmail:  p.AuthorEmail,
		AuthorLogin:  p.AuthorLogin,
		Title:        p.Title,
		CreatedAt:    time.Now().UTC(),
	}
	switch {
	case pubErr == nil:
		rec.Status = "completed"
		rec.Paths = result.Paths
		rec.CommitSHA = result.CommitSHA
	default:
		var partial *domain.PartialPublishError
		if !errors.As(pubErr, &partial) {
			return // nothing was written, nothing to audit
		}
		rec.Status = "partial"
		rec.Paths = partial.Committed
	}
	if err := s.Audit.Put(ctx, rec); err != nil {
		slog.Warn("audit record write failed", "submission", rec.SubmissionID, "err", err)
	}
}

// notify fans out the new-submission notice to admins. Best-effort: a failed
// notification never fails an already-published submission.
func (s *service) notify(ctx context.Context, p *domain.SubmissionPayload, result *domain.PublishResult) {
	subject := fmt.Sprintf("New submission: %s", p.Title)
	body := fmt.Sprintf(
		"Author: %s (%s)\nTitle: %s\nTags: %s\nFiles: %d\nCommit: %s\n",
		p.AuthorLogin, p.AuthorEmail, p.Title,
		strings.Join(p.Tags, ", "), len(result.Paths), result.CommitSHA)

	for _, admin := range s.AdminEmails {
		if err := s.Mailer.SendEmail(admin, subject, body); err != nil {
			slog.Warn("admin notification mail failed", "to", admin, "err", err)
		}
	}
	if s.Alerts != nil {
		if err := s.Alerts.PublishAlert(ctx, subject, body); err != nil {
			slog.Warn("admin alert publish failed", "err", err)
		}
	}
}
