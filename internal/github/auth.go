package github

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"time"

	"issue-move-bot/internal/cache"
	"issue-move-bot/internal/models"
	"issue-move-bot/internal/move"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// GitHub rejects App JWTs valid longer than 10 minutes.
const jwtDuration = 10 * time.Minute

// Factory mints authenticated GitHub clients for the App and for its
// installations. Installation tokens are cached until shortly before their
// remote expiry.
type Factory struct {
	appID      string
	privateKey *rsa.PrivateKey
	tokens     *cache.Cache[int64, string]
}

func NewFactory(appID string, privateKeyPEM []byte) (*Factory, error) {
	if appID == "" {
		return nil, fmt.Errorf("app ID cannot be empty")
	}
	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &Factory{
		appID:      appID,
		privateKey: key,
		tokens:     cache.New[int64, string](),
	}, nil
}

// appJWT signs a short-lived RS256 JWT identifying the App itself.
func (f *Factory) appJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    f.appID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtDuration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(f.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AppClient returns a client authenticated as the App, for installation
// discovery and the app profile.
func (f *Factory) AppClient(ctx context.Context) (*github.Client, error) {
	token, err := f.appJWT()
	if err != nil {
		return nil, err
	}
	return tokenClient(ctx, token), nil
}

// InstallationClient returns a client authenticated as a specific
// installation, exchanging the App JWT for an installation access token.
func (f *Factory) InstallationClient(ctx context.Context, installationID int64) (*github.Client, error) {
	if token, ok := f.tokens.Get(installationID); ok {
		return tokenClient(ctx, token), nil
	}

	appClient, err := f.AppClient(ctx)
	if err != nil {
		return nil, err
	}
	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating installation token: %w", err)
	}

	f.tokens.SetUntil(installationID, token.GetToken(), token.GetExpiresAt().Time.Add(-5*time.Minute))
	return tokenClient(ctx, token.GetToken()), nil
}

func tokenClient(ctx context.Context, accessToken string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

func parsePrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if block.Type == "RSA PRIVATE KEY" {
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, nil
}

// AppDirectory resolves installations and the app's public listing page.
// It implements move.Installations.
type AppDirectory struct {
	factory *Factory
	appURL  *cache.Cache[string, string]
}

func NewAppDirectory(factory *Factory) *AppDirectory {
	return &AppDirectory{
		factory: factory,
		appURL:  cache.New[string, string](),
	}
}

// AppURL returns the app's public listing page, fetched once per day.
func (d *AppDirectory) AppURL(ctx context.Context) (string, error) {
	if url, ok := d.appURL.Get("app"); ok {
		return url, nil
	}
	client, err := d.factory.AppClient(ctx)
	if err != nil {
		return "", err
	}
	app, _, err := client.Apps.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("fetching app profile: %w", err)
	}
	d.appURL.Set("app", app.GetHTMLURL(), 24*time.Hour)
	return app.GetHTMLURL(), nil
}

// InstallationFor locates the installation with access to ref and returns a
// client scoped to it. A repository not covered by any installation yields
// *move.NotInstalledError; everything else propagates.
func (d *AppDirectory) InstallationFor(ctx context.Context, ref models.RepoRef) (move.API, error) {
	client, err := d.factory.AppClient(ctx)
	if err != nil {
		return nil, err
	}
	inst, _, err := client.Apps.FindRepositoryInstallation(ctx, ref.Owner, ref.Repo)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return nil, &move.NotInstalledError{Target: ref}
		}
		return nil, fmt.Errorf("finding installation for %s: %w", ref, err)
	}

	ghc, err := d.factory.InstallationClient(ctx, inst.GetID())
	if err != nil {
		return nil, err
	}
	return NewClient(ghc), nil
}
