package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Profile shares its id with the auth identity. IsAdmin gates the dashboard.
type Profile struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name,omitempty"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	IsAdmin     bool            `json:"is_admin"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type UpdateProfileParams struct {
	DisplayName *string         `json:"display_name,omitempty"`
	AvatarURL   *string         `json:"avatar_url,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}
