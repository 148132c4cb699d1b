package domain

// OAuthIdentity is the provider-verified identity obtained from a completed
// OAuth code exchange. It lives for the duration of one request; the access
// token is used only to fetch the profile and is never persisted or logged.
type OAuthIdentity struct {
	Login       string
	Email       string // provider-verified primary email, may be empty
	AccessToken string
}
