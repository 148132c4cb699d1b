package domain

import "time"

// Attachment is one image carried by a submission: raw bytes plus the
// declared filename and content type. Order is significant: attachments are
// published in the order the client sent them.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SubmissionPayload is the validated content of one submission attempt.
// It is constructed from the request, published, then discarded; nothing of
// it is retained after the publish step completes or fails.
type SubmissionPayload struct {
	AuthorEmail string
	AuthorLogin string
	Title       string
	Body        string
	Tags        []string
	Attachments []Attachment
}

// Commit identifies a single file write accepted by the repository API.
type Commit struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// PublishResult reports a fully committed submission: every path was written,
// and CommitSHA is the commit created by the final write.
type PublishResult struct {
	CommitSHA string   `json:"commit"`
	Paths     []string `json:"paths"`
}

// SubmissionRecord is the audit-log entry written after a publish attempt.
// PK: submission_id.
type SubmissionRecord struct {
	SubmissionID string    `json:"id" dynamodbav:"submission_id"`
	AuthorEmail  string    `json:"author_email" dynamodbav:"author_email"`
	AuthorLogin  string    `json:"author_login" dynamodbav:"author_login"`
	Title        string    `json:"title" dynamodbav:"title"`
	Paths        []string  `json:"paths" dynamodbav:"paths"`
	CommitSHA    string    `json:"commit" dynamodbav:"commit_sha"`
	Status       string    `json:"status" dynamodbav:"status"` // "completed" | "partial"
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}
