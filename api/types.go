package api

import "time"

// UserProfile is the backend's user representation. Field names follow the
// backend's JSON contract.
type UserProfile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Role             string     `json:"role"`
	IsVerified       bool       `json:"is_verified"`
	IsActive         bool       `json:"is_active"`
	SubscriptionTier string     `json:"subscription_tier,omitempty"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastCheckIn      *time.Time `json:"last_check_in,omitempty"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         UserProfile `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// RefreshResponse is returned by POST /auth/refresh. The backend issues a
// new access token only; the refresh token stays in force.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
