package dto

// StatusResponse is the body of liveness and readiness checks
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}
