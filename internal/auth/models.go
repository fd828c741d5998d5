package auth

import "time"

type EnrolRequest struct {
	AccessCode string `json:"access_code"`
	Label      string `json:"label"`
}

type Participant struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type TokenResponse struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	ParticipantID string `json:"participant_id"`
}
