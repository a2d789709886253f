package cliclient

import (
	"encoding/json"
	"time"
)

// Envelope is the body of every API response.
type Envelope struct {
	Meta struct {
		Code    int          `json:"code"`
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Errors  []ErrorEntry `json:"errors"`
	} `json:"meta"`
	Result json.RawMessage `json:"result"`
}

// ErrorEntry is one entry of meta.errors.
type ErrorEntry struct {
	Type    string `json:"error_type"`
	Message string `json:"error_message"`
	Field   string `json:"field,omitempty"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// User represents a user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	ImageURL  string    `json:"image_url,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Causer is the user an activity is attributed to.
type Causer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Activity represents one activity log entry.
type Activity struct {
	ID          uint           `json:"id"`
	LogName     string         `json:"log_name"`
	Description string         `json:"description"`
	Causer      *Causer        `json:"causer"`
	Properties  map[string]any `json:"properties"`
	CreatedAt   time.Time      `json:"created_at"`
}
