package cliclient

import (
	"context"
	"net/url"
	"time"
)

// ListUsers returns all users (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.Get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserStatus activates or deactivates a user (admin only).
func (c *Client) SetUserStatus(ctx context.Context, id, status string) (*User, error) {
	var user User
	if err := c.Patch(ctx, "/users/"+url.PathEscape(id)+"/status", map[string]string{"status": status}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user (admin only).
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/users/"+url.PathEscape(id))
}

// ListActivityLogs returns the whole activity log (admin only).
func (c *Client) ListActivityLogs(ctx context.Context) ([]Activity, error) {
	return c.activities(ctx, "/activity-logs")
}

// ActivityLogsByCategory returns the entries of one log category (admin only).
func (c *Client) ActivityLogsByCategory(ctx context.Context, logName string) ([]Activity, error) {
	return c.activities(ctx, "/activity-logs/category/"+url.PathEscape(logName))
}

// ActivityLogsBetween returns the entries created on the days from start to end inclusive (admin only).
func (c *Client) ActivityLogsBetween(ctx context.Context, start, end time.Time) ([]Activity, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))
	return c.activities(ctx, "/activity-logs/range?"+q.Encode())
}

func (c *Client) activities(ctx context.Context, path string) ([]Activity, error) {
	var logs []Activity
	if err := c.Get(ctx, path, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
