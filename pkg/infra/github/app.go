// Package github implements the GitHub App credential exchange: App
// private key → installation token → JIT runner registration token.
package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// App mints JIT runner registration tokens for repositories the GitHub
// App is installed on. The private key is fetched from the secret store
// on every call; nothing is cached, so every dispatch re-authenticates
// from the App credentials.
type App struct {
	appID     int64
	secrets   interfaces.SecretStore
	transport http.RoundTripper
	baseURL   *url.URL
}

// Option is a functional option for App configuration
type Option func(*App)

// WithTransport sets the underlying HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(a *App) {
		a.transport = rt
	}
}

// WithAPIBaseURL points the client at a different GitHub API endpoint,
// mainly for tests against a local fake.
func WithAPIBaseURL(rawURL string) Option {
	return func(a *App) {
		u, err := url.Parse(strings.TrimSuffix(rawURL, "/") + "/")
		if err != nil {
			return
		}
		a.baseURL = u
	}
}

// NewApp creates a token source for the given GitHub App ID
func NewApp(appID int64, secrets interfaces.SecretStore, opts ...Option) *App {
	app := &App{
		appID:     appID,
		secrets:   secrets,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// MintRunnerToken exchanges the App private key for a single-use runner
// registration token scoped to owner/repo. The intermediate installation
// token lives only inside the transport for this call.
func (a *App) MintRunnerToken(ctx context.Context, owner, repo string) (string, error) {
	record, err := a.secrets.GetSecretRecord(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch app credentials", goerr.T(types.ErrTagUpstream))
	}
	if err := record.ValidatePrivateKey(); err != nil {
		return "", err
	}

	atr, err := ghinstallation.NewAppsTransport(a.transport, a.appID, []byte(record.PrivateKey))
	if err != nil {
		return "", goerr.Wrap(types.ErrSecretUnavailable, "failed to load app private key", goerr.V("cause", err.Error()))
	}
	if a.baseURL != nil {
		atr.BaseURL = strings.TrimSuffix(a.baseURL.String(), "/")
	}

	appClient := a.newClient(atr)
	installation, resp, err := appClient.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", goerr.Wrap(types.ErrInstallationNotFound, "no installation for repository",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
			)
		}
		return "", goerr.Wrap(err, "failed to look up repository installation",
			goerr.T(types.ErrTagUpstream),
			goerr.V("owner", owner),
			goerr.V("repo", repo),
		)
	}

	itr := ghinstallation.NewFromAppsTransport(atr, installation.GetID())
	if a.baseURL != nil {
		itr.BaseURL = strings.TrimSuffix(a.baseURL.String(), "/")
	}

	instClient := a.newClient(itr)
	token, _, err := instClient.Actions.CreateRegistrationToken(ctx, owner, repo)
	if err != nil {
		return "", goerr.Wrap(types.ErrTokenExchangeFailed, "registration token request rejected",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("cause", err.Error()),
		)
	}
	if token.GetToken() == "" {
		return "", goerr.Wrap(types.ErrTokenExchangeFailed, "registration token response is empty",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
		)
	}

	return token.GetToken(), nil
}

var _ interfaces.RunnerTokenSource = (*App)(nil)

// newClient builds a go-github client over the given transport
func (a *App) newClient(rt http.RoundTripper) *github.Client {
	client := github.NewClient(&http.Client{Transport: rt})
	if a.baseURL != nil {
		client.BaseURL = a.baseURL
	}
	return client
}
