// Package provider defines the remote message-service contract and the
// Connector that manages a provider's credential lifecycle around it.
package provider

import (
	"context"
	"time"

	"basegraph.app/herald/internal/model"
)

// Message is one unread item fetched from a provider.
type Message struct {
	ReceivedAt time.Time
	Extras     map[string]string
	ID         string
	Channel    string
	Sender     string
	Subject    string
	Snippet    string
	URL        string
}

func (m Message) Ref() MessageRef {
	return MessageRef{Channel: m.Channel, ID: m.ID}
}

// MessageRef addresses a message for acknowledgement.
type MessageRef struct {
	Channel string
	ID      string
}

// Token is the result of a code exchange or refresh.
type Token struct {
	ExpiresAt    *time.Time
	RefreshToken *string
	AccountID    *string
	AccessToken  string
	Scopes       []string
}

// Client is the network primitive for one provider. Methods return errors;
// the Connector turns them into boolean or empty outcomes.
type Client interface {
	Provider() model.Provider
	AuthURL(redirectURI, state string) string
	Exchange(ctx context.Context, code, redirectURI string) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	FetchMessages(ctx context.Context, accessToken string, since time.Time) ([]Message, error)
	MarkAsRead(ctx context.Context, accessToken string, ref MessageRef) error
}

// BatchMarker is implemented by clients whose API can acknowledge many
// messages in one call.
type BatchMarker interface {
	MarkAsReadBatch(ctx context.Context, accessToken string, refs []MessageRef) error
}

// Closer is implemented by clients holding network resources.
type Closer interface {
	Close() error
}
