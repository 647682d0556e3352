package dto

// UsageRequest consumes one unit of a metered resource.
// @Description Request body for a usage check
type UsageRequest struct {
	UserID string `json:"user_id" example:"5a6b7c8d-9e0f-1a2b-3c4d-5e6f7a8b9c0d"`
	Type   string `json:"type" example:"ai_calls" enums:"ai_calls,documents_uploaded,quizzes_created"`
}

// UsageResponse describes the counter after an admitted check.
// Remaining and Limit are null for unlimited plans.
type UsageResponse struct {
	Success   bool   `json:"success"`
	Type      string `json:"type"`
	Used      int    `json:"used"`
	Remaining *int   `json:"remaining"`
	Limit     *int   `json:"limit"`
	Plan      string `json:"plan"`
}

// QuotaExceededResponse is returned with 403 when a plan limit is reached.
type QuotaExceededResponse struct {
	Upgrade bool   `json:"upgrade"`
	Plan    string `json:"plan"`
	Message string `json:"message"`
}
