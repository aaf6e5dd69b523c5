// Package remote implements the record-store API client: one sub-client
// per collection (folders, readings, card notes), each call scoped by an
// owner identity. The wire format is flat snake_case JSON; this package
// owns the bidirectional mapping to the in-memory model types.
package remote

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

	"github.com/arcanadev/arcana/internal/common"
)

// OwnerKind distinguishes the two owner scopes.
type OwnerKind string

const (
	OwnerDevice OwnerKind = "device"
	OwnerUser   OwnerKind = "user"
)

// Owner is the identity every remote call is scoped by: either the stable
// anonymous device token or an authenticated user id. The engine is
// agnostic to which kind it holds.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// ScopeKey is the stable string form used to namespace local storage.
func (o Owner) ScopeKey() string {
	return string(o.Kind) + ":" + o.ID
}

// TokenProvider returns the current access token for user-scoped calls.
type TokenProvider func(ctx context.Context) (string, error)

// Error is any transport, auth, or constraint failure reported by the
// record store. NotFound responses are additionally errors.Is-matchable
// against common.ErrNotFound.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error: status=%d message=%s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return common.ErrNotFound
	}
	if e.Status == http.StatusUnauthorized {
		return common.ErrUnauthorized
	}
	return nil
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenProvider
}

// SessionRefresher refreshes an expired user session in place. When set,
// a user-scoped call that comes back 401 is retried once after a
// successful refresh.
type SessionRefresher func(ctx context.Context) error

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	refresh    SessionRefresher
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     opts.Tokens,
	}
}

// SetTokenProvider installs the access-token source for user-scoped calls.
func (c *Client) SetTokenProvider(tokens TokenProvider) {
	c.tokens = tokens
}

// SetSessionRefresher installs the hook used to recover from an expired
// access token.
func (c *Client) SetSessionRefresher(refresh SessionRefresher) {
	c.refresh = refresh
}

func (c *Client) Auth() *AuthClient           { return &AuthClient{c: c} }
func (c *Client) Folders() *FoldersClient     { return &FoldersClient{c: c} }
func (c *Client) Readings() *ReadingsClient   { return &ReadingsClient{c: c} }
func (c *Client) CardNotes() *CardNotesClient { return &CardNotesClient{c: c} }

// Ping probes record-store reachability. Used by the online-status watcher.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Status: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}

// do issues one owner-scoped JSON request. A non-2xx response is decoded
// into *Error; out (when non-nil) receives the decoded success body.
// A user-scoped 401 is retried once after a session refresh when a
// refresher is installed.
func (c *Client) do(ctx context.Context, method, path string, owner Owner, body, out any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	err := c.doOnce(ctx, method, path, owner, data, out)
	if err == nil || owner.Kind != OwnerUser || c.refresh == nil {
		return err
	}

	var remoteErr *Error
	if !errors.As(err, &remoteErr) || remoteErr.Status != http.StatusUnauthorized {
		return err
	}
	if refreshErr := c.refresh(ctx); refreshErr != nil {
		return fmt.Errorf("session refresh: %w", refreshErr)
	}
	return c.doOnce(ctx, method, path, owner, data, out)
}

func (c *Client) doOnce(ctx context.Context, method, path string, owner Owner, data []byte, out any) error {
	var reqBody io.Reader
	if data != nil {
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch owner.Kind {
	case OwnerDevice:
		req.Header.Set(common.DeviceIDHeaderName, owner.ID)
	case OwnerUser:
		if c.tokens == nil {
			return fmt.Errorf("no token provider for user scope")
		}
		token, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("token error: %w", err)
		}
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+token)
	default:
		return fmt.Errorf("unknown owner kind %q", owner.Kind)
	}

	return c.send(req, out)
}

// doPublic issues an unauthenticated JSON request. Used by the auth
// endpoints, which establish the identity other calls are scoped by.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteErr := &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &parsed) == nil {
			if parsed.Code != "" {
				remoteErr.Code = parsed.Code
			}
			if strings.TrimSpace(parsed.Message) != "" {
				remoteErr.Message = parsed.Message
			}
		}
		return remoteErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
