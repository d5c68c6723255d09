package leadsapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. It does not touch the token store;
// the login command persists the session.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResponse{}, fmt.Errorf("leadsapi: username and password are required")
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, loginRequest{Username: username, Password: password}, &resp); err != nil {
		return LoginResponse{}, err
	}
	if resp.Token == "" {
		return LoginResponse{}, fmt.Errorf("leadsapi: login response missing token")
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return resp, nil
}

// Me returns the identity bound to the stored token.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	var resp Identity
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &resp); err != nil {
		return Identity{}, err
	}
	return resp, nil
}
