package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// StreamClient calls the Stream Chat REST API.
type StreamClient struct {
	http      *resty.Client
	apiKey    string
	apiSecret []byte
	log       *zap.Logger
}

func NewStreamClient(baseURL, apiKey, apiSecret string, log *zap.Logger) *StreamClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("stream-auth-type", "jwt")

	return &StreamClient{
		http:      client,
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		log:       log,
	}
}

// serverToken signs the server-side credential the REST API expects.
func (c *StreamClient) serverToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"server": true})
	return token.SignedString(c.apiSecret)
}

func (c *StreamClient) request(ctx context.Context) (*resty.Request, error) {
	token, err := c.serverToken()
	if err != nil {
		return nil, fmt.Errorf("sign server token: %w", err)
	}
	return c.http.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetHeader("Authorization", token), nil
}

type upsertUsersBody struct {
	Users map[string]RemoteUser `json:"users"`
}

func (c *StreamClient) UpsertUser(ctx context.Context, u RemoteUser) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetBody(upsertUsersBody{Users: map[string]RemoteUser{u.ID: u}}).
		Post("/users")
	if err != nil {
		return fmt.Errorf("upsert chat user: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("upsert chat user: status %d: %s", resp.StatusCode(), resp.Body())
	}

	c.log.Debug("chat user upserted", zap.String("user_id", u.ID))
	return nil
}

func (c *StreamClient) DeleteUser(ctx context.Context, id string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetQueryParam("mark_messages_deleted", "true").
		SetQueryParam("hard_delete", "true").
		Delete("/users/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("delete chat user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("delete chat user: status %d: %s", resp.StatusCode(), resp.Body())
	}

	c.log.Debug("chat user deleted", zap.String("user_id", id))
	return nil
}

// CreateToken signs a client token; no network call is made.
func (c *StreamClient) CreateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	signed, err := token.SignedString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("sign chat token: %w", err)
	}
	return signed, nil
}

// APIKey is handed to clients alongside their token.
func (c *StreamClient) APIKey() string {
	return c.apiKey
}
