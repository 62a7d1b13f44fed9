package httpdir

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rostersync/internal/config"
	"rostersync/internal/directory"
	"rostersync/internal/services"
)

// Client implements directory.Client over the member-directory HTTP API.
type Client struct {
	baseURL    string
	token      string
	actorID    string
	httpClient *http.Client

	cache    *metaCache
	joinPoll time.Duration
	joins    chan directory.JoinEvent
}

var _ directory.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a directory client from configuration.
func New(cfg config.Directory, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("directory base url required")
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("directory token required")
	}
	actorID := strings.TrimSpace(cfg.ActorID)
	if actorID == "" {
		return nil, errors.New("directory actor id required")
	}

	client := &Client{
		baseURL:    baseURL,
		token:      token,
		actorID:    actorID,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second},
		cache:      newMetaCache(time.Duration(cfg.TagTTLSeconds) * time.Second),
		joinPoll:   time.Duration(cfg.JoinPollSeconds) * time.Second,
		joins:      make(chan directory.JoinEvent, 16),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Entity fetches one member with its full tag set.
func (c *Client) Entity(ctx context.Context, id string) (directory.Entity, error) {
	var entity directory.Entity
	err := c.get(ctx, "/members/"+id, "fetch entity", &entity)
	return entity, err
}

// Members returns the full membership snapshot.
func (c *Client) Members(ctx context.Context) ([]directory.Entity, error) {
	var members []directory.Entity
	err := c.get(ctx, "/members", "fetch members", &members)
	return members, err
}

type tagMutation struct {
	TagIDs []string `json:"tag_ids"`
}

// AddTags assigns tags to an entity in one batch. A no-op for an empty set.
func (c *Client) AddTags(ctx context.Context, id string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return c.post(ctx, "/members/"+id+"/tags", "add tags", tagMutation{TagIDs: tagIDs})
}

// RemoveTags removes tags from an entity in one batch. A no-op for an empty set.
func (c *Client) RemoveTags(ctx context.Context, id string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return c.post(ctx, "/members/"+id+"/tags/remove", "remove tags", tagMutation{TagIDs: tagIDs})
}

// Tag returns tag metadata, served from the TTL cache when fresh.
func (c *Client) Tag(ctx context.Context, tagID string) (directory.Tag, error) {
	if tag, ok := c.cache.tag(tagID); ok {
		return tag, nil
	}
	var tag directory.Tag
	if err := c.get(ctx, "/tags/"+tagID, "fetch tag", &tag); err != nil {
		return directory.Tag{}, err
	}
	c.cache.putTag(tag)
	return tag, nil
}

type actorPayload struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
}

// ActorRank returns the acting identity's rank, served from the TTL cache
// when fresh.
func (c *Client) ActorRank(ctx context.Context) (int, error) {
	if rank, ok := c.cache.actorRank(); ok {
		return rank, nil
	}
	var actor actorPayload
	if err := c.get(ctx, "/actors/"+c.actorID, "fetch actor", &actor); err != nil {
		return 0, err
	}
	c.cache.putActorRank(actor.Rank)
	return actor.Rank, nil
}

func (c *Client) get(ctx context.Context, path, operation string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "directory", operation, "build request", err)
	}
	return c.do(req, operation, out)
}

func (c *Client) post(ctx context.Context, path, operation string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "directory", operation, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return services.Wrap(services.ErrTransient, "directory", operation, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation, nil)
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "directory", operation, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "directory", operation, "resource not found", nil)
	case resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrPermission, "directory", operation, "forbidden", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return services.Wrap(services.ErrTransient, "directory", operation,
			fmt.Sprintf("directory returned %d", resp.StatusCode), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "directory", operation, "decode response", err)
	}
	return nil
}
