package share

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/contrib-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCodes struct{ mock.Mock }

func (m *mockCodes) Validate(address, code string) error {
	return m.Called(address, code).Error(0)
}

type mockStager struct{ mock.Mock }

func (m *mockStager) Stage(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, data, contentType, ttl)
	return args.String(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

func newService(t *testing.T, codes *mockCodes, stager *mockStager, ml *mockMailer) (Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewService(Deps{
		Codes:       codes,
		Stager:      stager,
		Mailer:      ml,
		AdminEmails: []string{"admin@club.org"},
		ShareDir:    dir,
		LinkTTL:     24 * time.Hour,
	})
	return svc, dir
}

func validRequest() Request {
	return Request{
		Applicant: "Alice",
		ApplyFor:  "slides.pdf",
		Address:   "a@x.com",
		Code:      "123456",
	}
}

func TestShare_HappyPath(t *testing.T) {
	codes := &mockCodes{}
	stager := &mockStager{}
	ml := &mockMailer{}
	svc, dir := newService(t, codes, stager, ml)

	content := []byte("pdf bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slides.pdf"), content, 0o644))

	codes.On("Validate", "a@x.com", "123456").Return(nil)
	stager.On("Stage", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "share/") && strings.HasSuffix(key, "/slides.pdf")
	}), content, "application/pdf", 24*time.Hour).
		Return("https://s3.example/share/slides.pdf?sig=x", nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "https://s3.example/share/slides.pdf?sig=x")
	})).Return(nil)
	ml.On("SendEmail", "admin@club.org", mock.Anything, mock.Anything).Return(nil)

	file, err := svc.Share(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "slides.pdf", file.Name)
	assert.Equal(t, int64(len(content)), file.Size)
	assert.Equal(t, "https://s3.example/share/slides.pdf?sig=x", file.DownloadLink)
	assert.True(t, file.ExpiresAt.After(file.StagedAt))
	stager.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestShare_InvalidCode_NoStaging(t *testing.T) {
	codes := &mockCodes{}
	stager := &mockStager{}
	svc, dir := newService(t, codes, stager, &mockMailer{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slides.pdf"), []byte("x"), 0o644))

	codes.On("Validate", "a@x.com", "123456").Return(domain.ErrCodeInvalid)

	_, err := svc.Share(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailed))
	stager.AssertNotCalled(t, "Stage",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestShare_UnknownFile(t *testing.T) {
	codes := &mockCodes{}
	codes.On("Validate", "a@x.com", "123456").Return(nil)
	svc, _ := newService(t, codes, &mockStager{}, &mockMailer{})

	_, err := svc.Share(context.Background(), validRequest())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestShare_TraversalStaysInsideShareDir(t *testing.T) {
	codes := &mockCodes{}
	codes.On("Validate", "a@x.com", "123456").Return(nil)
	svc, _ := newService(t, codes, &mockStager{}, &mockMailer{})

	req := validRequest()
	req.ApplyFor = "../../etc/passwd"
	_, err := svc.Share(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestShare_MalformedRequest(t *testing.T) {
	codes := &mockCodes{}
	svc, _ := newService(t, codes, &mockStager{}, &mockMailer{})

	req := validRequest()
	req.Address = "not-an-email"
	_, err := svc.Share(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	codes.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestList(t *testing.T) {
	svc, dir := newService(t, &mockCodes{}, &mockStager{}, &mockMailer{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.zip"), []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("de"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"a.zip", "b.pdf"}, names)
}
