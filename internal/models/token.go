package models

import "time"

// Session is the authenticated state handed to request handlers. It is built
// on login, restored from the session store per request and torn down on logout.
type Session struct {
	ID        string    `json:"id"`
	Account   *Account  `json:"user"`
	IsAdmin   bool      `json:"is_admin"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Access Token Response
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	SessionID   string    `json:"session_id"`
	AccountID   string    `json:"account_id"`
	IsAdmin     bool      `json:"is_admin"`
	IssuedAt    time.Time `json:"issued_at"`
}
