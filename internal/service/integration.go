package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/provider"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidState    = errors.New("invalid or expired oauth state")
	ErrExchangeFailed  = errors.New("authorization code exchange failed")
)

const oauthStateTTL = 10 * time.Minute

// StateStore remembers which provider an OAuth state value was issued for.
type StateStore interface {
	Put(ctx context.Context, state string, p model.Provider, ttl time.Duration) error
	// Take returns and forgets the provider for state.
	Take(ctx context.Context, state string) (model.Provider, error)
}

type ProviderStatus struct {
	Provider  model.Provider `json:"provider"`
	Connected bool           `json:"connected"`
}

type IntegrationService interface {
	AuthURL(ctx context.Context, p model.Provider) (string, error)
	Callback(ctx context.Context, state, code string) (model.Provider, error)
	Status(ctx context.Context) []ProviderStatus
	Disconnect(ctx context.Context, p model.Provider) error
}

type integrationService struct {
	registry    *provider.Registry
	states      StateStore
	redirectURI string
}

func NewIntegrationService(registry *provider.Registry, states StateStore, redirectURI string) IntegrationService {
	return &integrationService{registry: registry, states: states, redirectURI: redirectURI}
}

func (s *integrationService) connector(p model.Provider) (*provider.Connector, error) {
	c, ok := s.registry.Get(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	return c, nil
}

func (s *integrationService) AuthURL(ctx context.Context, p model.Provider) (string, error) {
	c, err := s.connector(p)
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	if err := s.states.Put(ctx, state, p, oauthStateTTL); err != nil {
		return "", fmt.Errorf("saving oauth state: %w", err)
	}
	return c.AuthURL(s.redirectURI, state), nil
}

func (s *integrationService) Callback(ctx context.Context, state, code string) (model.Provider, error) {
	if state == "" || code == "" {
		return "", ErrInvalidState
	}
	p, err := s.states.Take(ctx, state)
	if err != nil {
		return "", err
	}
	c, err := s.connector(p)
	if err != nil {
		return "", err
	}
	if !c.ExchangeCode(ctx, code, s.redirectURI) {
		return p, ErrExchangeFailed
	}
	return p, nil
}

func (s *integrationService) Status(ctx context.Context) []ProviderStatus {
	all := s.registry.All()
	out := make([]ProviderStatus, 0, len(all))
	for _, c := range all {
		out = append(out, ProviderStatus{Provider: c.Provider(), Connected: c.IsConnected(ctx)})
	}
	return out
}

func (s *integrationService) Disconnect(ctx context.Context, p model.Provider) error {
	c, err := s.connector(p)
	if err != nil {
		return err
	}
	if err := c.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting %s: %w", p, err)
	}
	slog.InfoContext(ctx, "provider disconnected", "provider", p)
	return nil
}

type redisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore keeps OAuth states in Redis so any server instance can
// finish a flow another one started.
func NewRedisStateStore(client *redis.Client) StateStore {
	return &redisStateStore{client: client, prefix: "herald:oauth_state:"}
}

func (s *redisStateStore) Put(ctx context.Context, state string, p model.Provider, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+state, string(p), ttl).Err()
}

func (s *redisStateStore) Take(ctx context.Context, state string) (model.Provider, error) {
	v, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidState
		}
		return "", fmt.Errorf("reading oauth state: %w", err)
	}
	return model.Provider(v), nil
}
