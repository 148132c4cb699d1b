package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Secrets (OAuth client secret, PAT, SMTP password) are env-only and never
// appear in committed files.
type Config struct {
	AppPort string
	AppEnv  string

	AllowedOrigins []string // CORS allowed origins

	GitHub GitHub
	SMTP   SMTP

	AdminEmails []string

	CodeTTL              time.Duration
	CodeResendCooldown   time.Duration
	RequireIdentityMatch bool

	MaxAttachments     int
	MaxAttachmentBytes int64
	MaxBodyBytes       int64

	ShareDir     string
	ShareLinkTTL time.Duration

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	S3BucketName   string
	SNSTopicARN    string // empty disables admin alerts

	DynamoTableSubmissions string // empty disables the audit log

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
}

// GitHub holds the OAuth app, repository target and service credentials.
type GitHub struct {
	RepoOwner    string
	RepoName     string
	RepoBranch   string
	ContentDir   string // repo-relative directory posts are written under
	ClientID     string
	ClientSecret string
	RedirectURI  string
	PAT          string
	APITimeout   time.Duration
}

// SMTP holds mail delivery settings.
type SMTP struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
	Timeout  time.Duration
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "4052"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		GitHub: GitHub{
			RepoOwner:    getEnv("GITHUB_REPO_OWNER", ""),
			RepoName:     getEnv("GITHUB_REPO_NAME", ""),
			RepoBranch:   getEnv("GITHUB_REPO_BRANCH", "main"),
			ContentDir:   getEnv("GITHUB_CONTENT_DIR", "source/_posts"),
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GITHUB_REDIRECT_URI", ""),
			PAT:          getEnv("GITHUB_PAT", ""),
			APITimeout:   time.Duration(getEnvInt("GITHUB_API_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		SMTP: SMTP{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnv("SMTP_PORT", "1025"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			Timeout:  time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		AdminEmails:            splitNonEmpty(getEnv("ADMIN_EMAILS", "")),
		CodeTTL:                time.Duration(getEnvInt("CODE_TTL_MINUTES", 10)) * time.Minute,
		CodeResendCooldown:     time.Duration(getEnvInt("CODE_RESEND_COOLDOWN_SECONDS", 60)) * time.Second,
		RequireIdentityMatch:   getEnvBool("REQUIRE_IDENTITY_MATCH", false),
		MaxAttachments:         getEnvInt("MAX_ATTACHMENTS", 9),
		MaxAttachmentBytes:     int64(getEnvInt("MAX_ATTACHMENT_BYTES", 5<<20)),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 64<<20)),
		ShareDir:               getEnv("SHARE_DIR", "./shared"),
		ShareLinkTTL:           time.Duration(getEnvInt("SHARE_LINK_TTL_HOURS", 24)) * time.Hour,
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:         getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:           getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:           getEnv("S3_BUCKET_NAME", "contrib-share"),
		SNSTopicARN:            getEnv("SNS_TOPIC_ARN", ""),
		DynamoTableSubmissions: getEnv("DYNAMO_TABLE_SUBMISSIONS", ""),
		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:              time.Duration(getEnvInt("JWT_EXPIRY_MINUTES", 60)) * time.Minute,
	}
}

// Stats reports how many of the required settings are populated, for the
// health endpoint. Optional integrations (SNS, Dynamo) are not counted.
func (c *Config) Stats() (ok, total int) {
	checks := []bool{
		c.GitHub.RepoOwner != "" && c.GitHub.RepoName != "",
		c.GitHub.ClientID != "" && c.GitHub.ClientSecret != "",
		c.GitHub.RedirectURI != "",
		c.GitHub.PAT != "",
		c.SMTP.Host != "" && c.SMTP.From != "",
		c.SMTP.Username != "" && c.SMTP.Password != "",
		len(c.AdminEmails) > 0,
		c.ShareDir != "",
	}
	for _, v := range checks {
		if v {
			ok++
		}
	}
	return ok, len(checks)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
