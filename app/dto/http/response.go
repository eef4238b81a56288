package http

type SessionResponse struct {
	UserID        uint64 `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	ExpiresIn     int64  `json:"expires_in"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerificationStatusResponse struct {
	EmailVerified bool   `json:"email_verified"`
	Message       string `json:"message"`
}

type ResetLinkResponse struct {
	ValidLink bool `json:"valid_link"`
}

type CallbackResponse struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Outcome string `json:"outcome,omitempty"`
}
