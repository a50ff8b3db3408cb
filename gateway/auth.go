package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

// Login exchanges credentials for a bearer token and the user record.
func (c *Client) Login(ctx context.Context, creds domain.LoginCredentials) (domain.LoginResult, error) {
	const op, msg = "login", "Failed to login"
	body, err := c.postJSON(ctx, op, msg, "/auth/login", creds)
	if err != nil {
		return domain.LoginResult{}, err
	}
	var res domain.LoginResult
	if err := json.Unmarshal(body, &res); err != nil {
		return domain.LoginResult{}, errs.Wrap(errs.KindUpstream, op, msg, err)
	}
	if res.AccessToken == "" {
		return domain.LoginResult{}, errs.E(errs.KindUpstream, op, msg)
	}
	return res, nil
}

// Register creates an account. Only username and password are sent; the
// confirmation is checked by the caller.
func (c *Client) Register(ctx context.Context, creds domain.RegisterCredentials) error {
	_, err := c.postJSON(ctx, "register", "Failed to register", "/auth/register", domain.LoginCredentials{
		Username: creds.Username,
		Password: creds.Password,
	})
	return err
}

func (c *Client) postJSON(ctx context.Context, op, msg, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, op, msg, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return nil, errs.Network(op, msg, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, msg, req)
}
