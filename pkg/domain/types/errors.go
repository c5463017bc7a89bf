package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across the dispatch pipeline. The HTTP
// controller maps them to response codes; the queue consumer treats any
// error as non-acknowledgment (redelivery).
var (
	// ErrTagInvalidInput marks missing or malformed request input (HTTP 400)
	ErrTagInvalidInput = goerr.NewTag("invalid_input")

	// ErrTagAuth marks webhook signature verification failure (HTTP 401)
	ErrTagAuth = goerr.NewTag("auth")

	// ErrTagUpstream marks failures of upstream collaborators: secret
	// store, GitHub token exchange, queue, build service (HTTP 502)
	ErrTagUpstream = goerr.NewTag("upstream")
)

// Sentinel errors for the GitHub App token exchange steps
var (
	ErrSecretUnavailable    = goerr.New("app credentials unavailable in secret store", goerr.T(ErrTagUpstream))
	ErrInstallationNotFound = goerr.New("github app is not installed on the repository", goerr.T(ErrTagUpstream))
	ErrTokenExchangeFailed  = goerr.New("runner token exchange failed", goerr.T(ErrTagUpstream))
)
