// Package gitlab surfaces GitLab to-do items as provider messages.
package gitlab

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/provider"
)

const perPage = 100

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type Client struct {
	oauth *provider.OAuthEndpoint
	// newAPI builds an API client for one access token.
	newAPI func(token string) (*gitlab.Client, error)
}

func New(cfg Config, http *resty.Client) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	oauth := provider.NewOAuthEndpoint(http, base+"/oauth/authorize", base+"/oauth/token", cfg.ClientID, cfg.ClientSecret, cfg.Scopes)
	apiURL := base + "/api/v4"
	return &Client{
		oauth: oauth,
		newAPI: func(token string) (*gitlab.Client, error) {
			return gitlab.NewOAuthClient(token, gitlab.WithBaseURL(apiURL))
		},
	}
}

func (c *Client) Provider() model.Provider {
	return model.ProviderGitLab
}

func (c *Client) AuthURL(redirectURI, state string) string {
	return c.oauth.AuthorizationURL(redirectURI, state)
}

// Exchange also records the GitLab username as the account id.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*provider.Token, error) {
	tok, err := c.oauth.Exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	api, err := c.newAPI(tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	user, _, err := api.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	username := user.Username
	tok.AccountID = &username
	return tok, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*provider.Token, error) {
	return c.oauth.Refresh(ctx, refreshToken)
}

// FetchMessages lists pending to-dos created after since. GitLab returns
// newest first, so paging stops at the first older item.
func (c *Client) FetchMessages(ctx context.Context, accessToken string, since time.Time) ([]provider.Message, error) {
	api, err := c.newAPI(accessToken)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	opts := &gitlab.ListTodosOptions{
		ListOptions: gitlab.ListOptions{PerPage: perPage},
		State:       gitlab.Ptr("pending"),
	}

	var out []provider.Message
	for {
		todos, resp, err := api.Todos.ListTodos(opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing todos: %w", err)
		}
		for _, todo := range todos {
			if todo.CreatedAt != nil && !todo.CreatedAt.After(since) {
				return out, nil
			}
			out = append(out, toMessage(todo))
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) MarkAsRead(ctx context.Context, accessToken string, ref provider.MessageRef) error {
	id, err := strconv.ParseInt(ref.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid todo id %q: %w", ref.ID, err)
	}
	api, err := c.newAPI(accessToken)
	if err != nil {
		return fmt.Errorf("creating gitlab client: %w", err)
	}
	if _, err := api.Todos.MarkTodoAsDone(id, gitlab.WithContext(ctx)); err != nil {
		return fmt.Errorf("marking todo done: %w", err)
	}
	return nil
}

func toMessage(todo *gitlab.Todo) provider.Message {
	msg := provider.Message{
		ID:      strconv.FormatInt(int64(todo.ID), 10),
		Snippet: todo.Body,
		URL:     todo.TargetURL,
		Extras: map[string]string{
			"action":      string(todo.ActionName),
			"target_type": string(todo.TargetType),
		},
	}
	if todo.CreatedAt != nil {
		msg.ReceivedAt = *todo.CreatedAt
	}
	if todo.Project != nil {
		msg.Channel = todo.Project.PathWithNamespace
	}
	if todo.Author != nil {
		msg.Sender = todo.Author.Username
	}
	if todo.Target != nil {
		msg.Subject = todo.Target.Title
	}
	if msg.Subject == "" {
		msg.Subject = strings.ReplaceAll(string(todo.ActionName), "_", " ")
	}
	return msg
}
