package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GoTrueConfig configures the GoTrue admin API client.
type GoTrueConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	PageSize   int
}

// GoTrueClient talks to the admin endpoints of a GoTrue (Supabase Auth) server.
type GoTrueClient struct {
	baseURL    string
	serviceKey string
	pageSize   int
	httpClient *http.Client
	logger     *zerolog.Logger
}

var _ Service = (*GoTrueClient)(nil)

// NewGoTrueClient creates a new GoTrueClient instance.
func NewGoTrueClient(cfg GoTrueConfig, logger *zerolog.Logger) *GoTrueClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	return &GoTrueClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type goTrueUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (u goTrueUser) principal() *Principal {
	return &Principal{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		Metadata:       u.UserMetadata,
		CreatedAt:      u.CreatedAt,
	}
}

type goTrueError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

func (e goTrueError) text() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

func (c *GoTrueClient) CreatePrincipal(ctx context.Context, params CreatePrincipalParams) (*Principal, error) {
	body := map[string]any{
		"email":         params.Email,
		"password":      params.Password,
		"email_confirm": params.Confirmed,
		"user_metadata": params.Metadata,
	}

	var user goTrueUser
	if err := c.do(ctx, http.MethodPost, "/admin/users", body, &user); err != nil {
		return nil, err
	}

	return user.principal(), nil
}

func (c *GoTrueClient) DeletePrincipal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
}

func (c *GoTrueClient) UpdatePrincipalPassword(ctx context.Context, id, newPassword string) error {
	body := map[string]any{"password": newPassword}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), body, nil)
}

// ListPrincipals pages through /admin/users until a short page is returned.
func (c *GoTrueClient) ListPrincipals(ctx context.Context) ([]*Principal, error) {
	var principals []*Principal

	for page := 1; ; page++ {
		var resp struct {
			Users []goTrueUser `json:"users"`
		}
		path := fmt.Sprintf("/admin/users?page=%d&per_page=%d", page, c.pageSize)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		for _, u := range resp.Users {
			principals = append(principals, u.principal())
		}

		if len(resp.Users) < c.pageSize {
			break
		}
	}

	return principals, nil
}

func (c *GoTrueClient) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("identity %s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode >= 300 {
		return c.classify(method, path, resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity %s %s: decode: %w", method, path, err)
	}
	return nil
}

func (c *GoTrueClient) classify(method, path string, status int, raw []byte) error {
	var apiErr goTrueError
	_ = json.Unmarshal(raw, &apiErr)
	msg := apiErr.text()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Str("error_code", apiErr.ErrorCode).
		Msg("identity service rejected request")

	switch {
	case status == http.StatusNotFound:
		return ErrPrincipalNotFound
	case apiErr.ErrorCode == "email_exists" || apiErr.ErrorCode == "user_already_exists",
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "already been registered"):
		return ErrPrincipalExists
	default:
		return fmt.Errorf("identity %s %s: status %d: %s", method, path, status, msg)
	}
}
