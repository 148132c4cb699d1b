// Package share hands out time-limited download links for files staged in
// the local share directory. Access requires the same email one-time code as
// a submission; admins are notified of every share.
package share

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/contrib-gateway/internal/domain"
	"github.com/contrib-gateway/internal/infrastructure/smtp"
	"github.com/contrib-gateway/internal/infrastructure/sns"
	"github.com/contrib-gateway/internal/pkg/id"
	"github.com/contrib-gateway/internal/pkg/validate"
)

// Request is the share payload.
type Request struct {
	Applicant string `json:"applicant" validate:"required,max=100"`
	ApplyFor  string `json:"apply_for" validate:"required"` // file name in the share directory
	Address   string `json:"address" validate:"required,email"`
	Code      string `json:"code" validate:"required"`
}

// CodeValidator checks a previously issued one-time code.
type CodeValidator interface {
	Validate(address, code string) error
}

// Stager uploads file bytes and returns a time-limited download link.
type Stager interface {
	Stage(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error)
}

// Service resolves share requests against the local share directory.
type Service interface {
	// Share stages the requested file and mails the download link to the
	// verified address.
	Share(ctx context.Context, req Request) (*domain.ShareFile, error)
	// List returns the names and sizes of the files available for sharing.
	List(ctx context.Context) ([]domain.ShareFile, error)
}

// Deps are the service's collaborators. Alerts may be nil.
type Deps struct {
	Codes  CodeValidator
	Stager Stager
	Mailer smtp.Mailer
	Alerts sns.AlertPublisher

	AdminEmails []string
	ShareDir    string
	LinkTTL     time.Duration
}

type service struct {
	Deps
}

func NewService(deps Deps) Service {
	return &service{Deps: deps}
}

func (s *service) Share(ctx context.Context, req Request) (*domain.ShareFile, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	if err := s.Codes.Validate(req.Address, req.Code); err != nil {
		return nil, err
	}

	// path.Base strips any directory components so a request can never
	// reach outside the share directory.
	name := path.Base(req.ApplyFor)
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("bad file name: %w", domain.ErrValidation)
	}
	full := filepath.Join(s.ShareDir, name)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("file %s: %w", name, domain.ErrNotFound)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read share file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := path.Join("share", id.New(), name)
	link, err := s.Stager.Stage(ctx, key, data, contentType, s.LinkTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	file := &domain.ShareFile{
		Name:         name,
		Size:         info.Size(),
		DownloadLink: link,
		StagedAt:     now,
		ExpiresAt:    now.Add(s.LinkTTL),
	}

	body := fmt.Sprintf("Download link for %s (valid until %s):\n%s\n",
		name, file.ExpiresAt.Format(time.RFC3339), link)
	if err := s.Mailer.SendEmail(req.Address, "Your download link", body); err != nil {
		return nil, err
	}
	s.notify(ctx, req.Applicant, req.Address, name)
	return file, nil
}

func (s *service) List(ctx context.Context) ([]domain.ShareFile, error) {
	entries, err := os.ReadDir(s.ShareDir)
	if err != nil {
		return nil, fmt.Errorf("read share dir: %w", err)
	}
	files := make([]domain.ShareFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if _, ok := err.(*fs.PathError); ok {
				continue // removed between ReadDir and Info
			}
			return nil, err
		}
		files = append(files, domain.ShareFile{Name: e.Name(), Size: info.Size()})
	}
	return files, nil
}

// notify tells the admins who asked for what. Best-effort.
func (s *service) notify(ctx context.Context, applicant, address, name string) {
	subject := fmt.Sprintf("File shared: %s", name)
	body := fmt.Sprintf("Applicant: %s (%s)\nFile: %s\n", applicant, address, name)
	for _, admin := range s.AdminEmails {
		if err := s.Mailer.SendEmail(admin, subject, body); err != nil {
			slog.Warn("admin share notification failed", "to", admin, "err", err)
		}
	}
	if s.Alerts != nil {
		if err := s.Alerts.PublishAlert(ctx, subject, body); err != nil {
			slog.Warn("admin alert publish failed", "err", err)
		}
	}
}
