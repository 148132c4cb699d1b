package submission

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/contrib-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Issue(address string) (string, time.Time, error) {
	args := m.Called(address)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
func (m *mockCodeStore) Validate(address, code string) error {
	return m.Called(address, code).Error(0)
}
func (m *mockCodeStore) Remove(address string) {
	m.Called(address)
}

type mockExchanger struct{ mock.Mock }

func (m *mockExchanger) Exchange(ctx context.Context, code string) (*domain.OAuthIdentity, error) {
	args := m.Called(ctx, code)
	if id, _ := args.Get(0).(*domain.OAuthIdentity); id != nil {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, path string, content []byte, message string) (*domain.Commit, error) {
	args := m.Called(ctx, path, content, message)
	if c, _ := args.Get(0).(*domain.Commit); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) Put(ctx context.Context, rec *domain.SubmissionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

// --- builder ---

func newService(cs *mockCodeStore, ex *mockExchanger, pub *mockPublisher, ml *mockMailer, audit AuditLog, requireMatch bool) Service {
	deps := Deps{
		Codes:                cs,
		Exchanger:            ex,
		Publisher:            pub,
		Mailer:               ml,
		AdminEmails:          []string{"admin@club.org"},
		ContentDir:           "source/_posts",
		CodeTTL:              10 * time.Minute,
		RequireIdentityMatch: requireMatch,
		MaxAttachments:       3,
		MaxAttachmentBytes:   1 << 20,
	}
	if audit != nil {
		deps.Audit = audit
	}
	return NewService(deps)
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func validRequest() Request {
	return Request{
		Address:   "a@x.com",
		Code:      "123456",
		OAuthCode: "oauth-abc",
		Title:     "My Post",
		Body:      "Hello, world!",
		Tags:      []string{"go"},
	}
}

// --- RequestCode ---

func TestRequestCode_HappyPath(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Issue", "a@x.com").Return("123456", time.Now().Add(10*time.Minute), nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return len(body) > 0
	})).Return(nil)

	svc := newService(cs, nil, nil, ml, nil, false)
	require.NoError(t, svc.RequestCode(context.Background(), "a@x.com"))
	cs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRequestCode_MalformedAddress(t *testing.T) {
	cs := &mockCodeStore{}
	svc := newService(cs, nil, nil, nil, nil, false)
	err := svc.RequestCode(context.Background(), "not-an-email")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	cs.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestRequestCode_RateLimited(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Issue", "a@x.com").Return("", time.Time{}, domain.ErrRateLimited)

	svc := newService(cs, nil, nil, &mockMailer{}, nil, false)
	err := svc.RequestCode(context.Background(), "a@x.com")
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
}

func TestRequestCode_MailFailureWithdrawsCode(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Issue", "a@x.com").Return("123456", time.Now().Add(10*time.Minute), nil)
	cs.On("Remove", "a@x.com").Return()
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).
		Return(domain.ErrUpstream)

	svc := newService(cs, nil, nil, ml, nil, false)
	require.Error(t, svc.RequestCode(context.Background(), "a@x.com"))
	cs.AssertCalled(t, "Remove", "a@x.com")
}

// --- Submit: structural validation ---

func TestSubmit_EmptyBody_NoExternalCalls(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}

	req := validRequest()
	req.Body = "   "
	svc := newService(cs, ex, pub, &mockMailer{}, nil, false)
	_, err := svc.Submit(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	cs.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
	ex.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_TooManyAttachments(t *testing.T) {
	req := validRequest()
	for i := 0; i < 4; i++ {
		req.Attachments = append(req.Attachments, AttachmentInput{Name: "a.png", Data: b64("x")})
	}
	svc := newService(&mockCodeStore{}, &mockExchanger{}, &mockPublisher{}, &mockMailer{}, nil, false)
	_, err := svc.Submit(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSubmit_AttachmentNotBase64(t *testing.T) {
	req := validRequest()
	req.Attachments = []AttachmentInput{{Name: "a.png", Data: "%%%not-base64%%%"}}
	svc := newService(&mockCodeStore{}, &mockExchanger{}, &mockPublisher{}, &mockMailer{}, nil, false)
	_, err := svc.Submit(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// --- Submit: auth gates ---

func TestSubmit_InvalidEmailCode_StopsBeforeOAuth(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	cs.On("Validate", "a@x.com", "123456").Return(domain.ErrCodeInvalid)

	svc := newService(cs, ex, &mockPublisher{}, &mockMailer{}, nil, false)
	_, err := svc.Submit(context.Background(), validRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailed))
	ex.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
}

func TestSubmit_OAuthRejected(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}
	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").Return(nil, domain.ErrOAuthInvalidCode)

	svc := newService(cs, ex, pub, &mockMailer{}, nil, false)
	_, err := svc.Submit(context.Background(), validRequest())

	assert.True(t, errors.Is(err, domain.ErrAuthFailed))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Both proofs pass individually but the identities do not bind.
func TestSubmit_IdentityMismatch_NoWrites(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}
	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").
		Return(&domain.OAuthIdentity{Login: "octocat", Email: "other@y.com"}, nil)

	svc := newService(cs, ex, pub, &mockMailer{}, nil, true)
	_, err := svc.Submit(context.Background(), validRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIdentityMismatch))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_IdentityMatchCaseInsensitive(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}
	ml := &mockMailer{}
	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").
		Return(&domain.OAuthIdentity{Login: "octocat", Email: "A@X.com"}, nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Commit{Path: "p", SHA: "s1"}, nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newService(cs, ex, pub, ml, nil, true)
	_, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
}

// --- Submit: publishing ---

func TestSubmit_HappyPath(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}
	ml := &mockMailer{}
	audit := &mockAudit{}

	req := validRequest()
	req.Attachments = []AttachmentInput{
		{Name: "cover.webp", ContentType: "image/webp", Data: b64("img1")},
	}

	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").
		Return(&domain.OAuthIdentity{Login: "octocat", Email: "a@x.com"}, nil)
	pub.On("Publish", mock.Anything, "source/_posts/my-post.md", mock.Anything, mock.Anything).
		Return(&domain.Commit{Path: "source/_posts/my-post.md", SHA: "c1"}, nil).Once()
	pub.On("Publish", mock.Anything, "source/_posts/my-post/cover.webp", []byte("img1"), mock.Anything).
		Return(&domain.Commit{Path: "source/_posts/my-post/cover.webp", SHA: "c2"}, nil).Once()
	ml.On("SendEmail", "admin@club.org", mock.Anything, mock.Anything).Return(nil)
	audit.On("Put", mock.Anything, mock.MatchedBy(func(rec *domain.SubmissionRecord) bool {
		return rec.Status == "completed" && rec.AuthorLogin == "octocat" && len(rec.Paths) == 2
	})).Return(nil)

	svc := newService(cs, ex, pub, ml, audit, false)
	result, err := svc.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "c2", result.CommitSHA)
	assert.Equal(t, []string{
		"source/_posts/my-post.md",
		"source/_posts/my-post/cover.webp",
	}, result.Paths)
	pub.AssertExpectations(t)
	ml.AssertExpectations(t)
	audit.AssertExpectations(t)
}

// Body and two images land, the third write fails.
func TestSubmit_PartialFailure(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}
	audit := &mockAudit{}

	req := validRequest()
	req.Attachments = []AttachmentInput{
		{Name: "img1.png", Data: b64("1")},
		{Name: "img2.png", Data: b64("2")},
		{Name: "img3.png", Data: b64("3")},
	}

	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").
		Return(&domain.OAuthIdentity{Login: "octocat"}, nil)
	pub.On("Publish", mock.Anything, "source/_posts/my-post.md", mock.Anything, mock.Anything).
		Return(&domain.Commit{SHA: "c1"}, nil)
	pub.On("Publish", mock.Anything, "source/_posts/my-post/img1.png", mock.Anything, mock.Anything).
		Return(&domain.Commit{SHA: "c2"}, nil)
	pub.On("Publish", mock.Anything, "source/_posts/my-post/img2.png", mock.Anything, mock.Anything).
		Return(&domain.Commit{SHA: "c3"}, nil)
	pub.On("Publish", mock.Anything, "source/_posts/my-post/img3.png", mock.Anything, mock.Anything).
		Return(nil, domain.ErrRepoWrite)
	audit.On("Put", mock.Anything, mock.MatchedBy(func(rec *domain.SubmissionRecord) bool {
		return rec.Status == "partial" && len(rec.Paths) == 3
	})).Return(nil)

	svc := newService(cs, ex, pub, &mockMailer{}, audit, false)
	_, err := svc.Submit(context.Background(), req)

	require.Error(t, err)
	var partial *domain.PartialPublishError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{
		"source/_posts/my-post.md",
		"source/_posts/my-post/img1.png",
		"source/_posts/my-post/img2.png",
	}, partial.Committed)
	assert.Equal(t, "source/_posts/my-post/img3.png", partial.FailedPath)
	assert.True(t, errors.Is(partial.Cause, domain.ErrUpstream))
	audit.AssertExpectations(t)
}

func TestSubmit_FirstWriteFails_NotPartial(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}

	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").
		Return(&domain.OAuthIdentity{Login: "octocat"}, nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrRepoWrite)

	svc := newService(cs, ex, pub, &mockMailer{}, nil, false)
	_, err := svc.Submit(context.Background(), validRequest())

	require.Error(t, err)
	var partial *domain.PartialPublishError
	assert.False(t, errors.As(err, &partial), "nothing committed means plain upstream failure")
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestSubmit_NotificationFailureDoesNotFailSubmission(t *testing.T) {
	cs := &mockCodeStore{}
	ex := &mockExchanger{}
	pub := &mockPublisher{}
	ml := &mockMailer{}

	cs.On("Validate", "a@x.com", "123456").Return(nil)
	ex.On("Exchange", mock.Anything, "oauth-abc").
		Return(&domain.OAuthIdentity{Login: "octocat"}, nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Commit{SHA: "c1"}, nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mailbox full"))

	svc := newService(cs, ex, pub, ml, nil, false)
	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "c1", result.CommitSHA)
}
