package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OAuthEndpoint speaks the authorization-code and refresh-token grants
// against a provider's token endpoint.
type OAuthEndpoint struct {
	http         *resty.Client
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// ScopeSeparator joins Scopes in the authorization URL.
	ScopeSeparator string
	// ExtraAuthParams are appended to the authorization URL.
	ExtraAuthParams map[string]string
	Now             func() time.Time
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func NewOAuthEndpoint(http *resty.Client, authURL, tokenURL, clientID, clientSecret string, scopes []string) *OAuthEndpoint {
	if http == nil {
		http = resty.New().SetTimeout(30 * time.Second)
	}
	return &OAuthEndpoint{
		http:           http,
		AuthURL:        authURL,
		TokenURL:       tokenURL,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		Scopes:         scopes,
		ScopeSeparator: " ",
		Now:            time.Now,
	}
}

func (o *OAuthEndpoint) AuthorizationURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", o.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	if len(o.Scopes) > 0 {
		q.Set("scope", strings.Join(o.Scopes, o.ScopeSeparator))
	}
	for k, v := range o.ExtraAuthParams {
		q.Set(k, v)
	}
	return o.AuthURL + "?" + q.Encode()
}

func (o *OAuthEndpoint) Exchange(ctx context.Context, code, redirectURI string) (*Token, error) {
	return o.grant(ctx, map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": redirectURI,
	})
}

// Refresh keeps the old refresh token when the provider does not rotate it.
func (o *OAuthEndpoint) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	tok, err := o.grant(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == nil {
		tok.RefreshToken = &refreshToken
	}
	return tok, nil
}

func (o *OAuthEndpoint) grant(ctx context.Context, form map[string]string) (*Token, error) {
	form["client_id"] = o.ClientID
	form["client_secret"] = o.ClientSecret

	var out tokenResponse
	var oerr oauthError
	resp, err := o.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(form).
		SetResult(&out).
		SetError(&oerr).
		Post(o.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token endpoint returned %d: %s %s", resp.StatusCode(), oerr.Error, oerr.Description)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	tok := &Token{AccessToken: out.AccessToken}
	if out.RefreshToken != "" {
		r := out.RefreshToken
		tok.RefreshToken = &r
	}
	if out.ExpiresIn > 0 {
		exp := o.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
		tok.ExpiresAt = &exp
	}
	if out.Scope != "" {
		tok.Scopes = strings.FieldsFunc(out.Scope, func(r rune) bool { return r == ' ' || r == ',' })
	}
	return tok, nil
}

// ParseUnixMillis parses a millisecond epoch string; zero on failure.
func ParseUnixMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
