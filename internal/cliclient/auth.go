package cliclient

import "context"

// Login authenticates with the server and returns a token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{
		Email:    email,
		Password: password,
	}

	var resp LoginResponse
	if err := c.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Logout invalidates the client's token.
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "/auth/logout", nil, nil)
}
