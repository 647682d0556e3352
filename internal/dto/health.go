package dto

// HealthResponse reports dependency status.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Provider string            `json:"provider,omitempty"`
}
