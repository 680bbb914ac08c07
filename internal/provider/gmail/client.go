// Package gmail surfaces unread Gmail messages through the Gmail REST API.
package gmail

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/provider"
)

const (
	listPageSize = 100
	// maxBatchModify is the API's per-request id limit.
	maxBatchModify = 1000
	unreadLabel    = "UNREAD"
)

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
	Scopes       []string
}

type Client struct {
	oauth *provider.OAuthEndpoint
	api   *resty.Client
}

func New(cfg Config, http *resty.Client) *Client {
	oauth := provider.NewOAuthEndpoint(http, cfg.AuthURL, cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes)
	// offline access is required to receive a refresh token
	oauth.ExtraAuthParams = map[string]string{"access_type": "offline", "prompt": "consent"}

	api := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.APIBaseURL, "/")+"/gmail/v1/users/me").
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{oauth: oauth, api: api}
}

func (c *Client) Provider() model.Provider {
	return model.ProviderGmail
}

func (c *Client) AuthURL(redirectURI, state string) string {
	return c.oauth.AuthorizationURL(redirectURI, state)
}

type profile struct {
	EmailAddress string `json:"emailAddress"`
}

func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*provider.Token, error) {
	tok, err := c.oauth.Exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	var p profile
	if err := c.get(ctx, tok.AccessToken, "/profile", nil, &p); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	tok.AccountID = &p.EmailAddress
	return tok, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*provider.Token, error) {
	return c.oauth.Refresh(ctx, refreshToken)
}

type listResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
	NextPageToken string `json:"nextPageToken"`
}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type messageResponse struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	Snippet      string   `json:"snippet"`
	InternalDate string   `json:"internalDate"`
	Payload      struct {
		Headers []header `json:"headers"`
	} `json:"payload"`
}

// FetchMessages lists unread inbox messages received after since and
// loads their metadata.
func (c *Client) FetchMessages(ctx context.Context, accessToken string, since time.Time) ([]provider.Message, error) {
	q := "is:unread in:inbox"
	if !since.IsZero() {
		q += " after:" + strconv.FormatInt(since.Unix(), 10)
	}

	var ids []string
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("q", q)
		params.Set("maxResults", strconv.Itoa(listPageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var page listResponse
		if err := c.get(ctx, accessToken, "/messages", params, &page); err != nil {
			return nil, fmt.Errorf("listing messages: %w", err)
		}
		for _, m := range page.Messages {
			ids = append(ids, m.ID)
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	out := make([]provider.Message, 0, len(ids))
	for _, id := range ids {
		params := url.Values{}
		params.Set("format", "metadata")
		params.Add("metadataHeaders", "From")
		params.Add("metadataHeaders", "Subject")
		var m messageResponse
		if err := c.get(ctx, accessToken, "/messages/"+url.PathEscape(id), params, &m); err != nil {
			return nil, fmt.Errorf("getting message %s: %w", id, err)
		}
		msg := toMessage(m)
		// after: has day granularity on some accounts
		if !since.IsZero() && !msg.ReceivedAt.IsZero() && !msg.ReceivedAt.After(since) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (c *Client) MarkAsRead(ctx context.Context, accessToken string, ref provider.MessageRef) error {
	body := map[string]any{"removeLabelIds": []string{unreadLabel}}
	return c.post(ctx, accessToken, "/messages/"+url.PathEscape(ref.ID)+"/modify", body)
}

// MarkAsReadBatch removes the unread label in chunks of maxBatchModify.
func (c *Client) MarkAsReadBatch(ctx context.Context, accessToken string, refs []provider.MessageRef) error {
	for start := 0; start < len(refs); start += maxBatchModify {
		end := min(start+maxBatchModify, len(refs))
		ids := make([]string, 0, end-start)
		for _, ref := range refs[start:end] {
			ids = append(ids, ref.ID)
		}
		body := map[string]any{"ids": ids, "removeLabelIds": []string{unreadLabel}}
		if err := c.post(ctx, accessToken, "/messages/batchModify", body); err != nil {
			return fmt.Errorf("batch modify: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, token, path string, params url.Values, out any) error {
	resp, err := c.api.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParamsFromValues(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("gmail returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (c *Client) post(ctx context.Context, token, path string, body any) error {
	resp, err := c.api.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("gmail returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func toMessage(m messageResponse) provider.Message {
	msg := provider.Message{
		ID:         m.ID,
		Channel:    m.ThreadID,
		Snippet:    m.Snippet,
		ReceivedAt: provider.ParseUnixMillis(m.InternalDate),
		Extras:     map[string]string{"labels": strings.Join(m.LabelIDs, ",")},
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.Sender = h.Value
		case "subject":
			msg.Subject = h.Value
		}
	}
	return msg
}
