package edit

import (
	"time"

	"github.com/google/uuid"
)

// EditRequest is the payload submitted by the app for one edit.
// UserTier is advisory only, the authoritative tier is read from the
// account before any billable work happens.
type EditRequest struct {
	CommandText string `json:"command_text" binding:"required"`
	ImageBase64 string `json:"image_base64" binding:"required"`
	UserTier    string `json:"user_tier"`
}

// EditResponse is returned for both successful and failed edits.
type EditResponse struct {
	Success          bool   `json:"success"`
	EditedImageURL   string `json:"edited_image_url,omitempty"`
	EditsRemaining   int    `json:"edits_remaining"`
	Unlimited        bool   `json:"unlimited"`
	ModelUsed        string `json:"model_used"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	Error            string `json:"error,omitempty"`
}

// EditRecordResponse is one entry of a user's edit history.
type EditRecordResponse struct {
	ID               uuid.UUID `json:"id"`
	CommandText      string    `json:"command_text"`
	EditedImageURL   string    `json:"edited_image_url"`
	ModelUsed        string    `json:"model_used"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryResponse wraps the edit history endpoint response.
type HistoryResponse struct {
	Edits []*EditRecordResponse `json:"edits"`
}
