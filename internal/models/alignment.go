// Package models defines the data structures for alignment requests,
// responses, and lifecycle events.
package models

// WordInterval is a single aligned word with its time boundaries in seconds.
type WordInterval struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// AlignRequest is the wire request for POST /align.
// RefineEndpoints is a pointer so an omitted field defaults to true.
type AlignRequest struct {
	AudioBase64     string `json:"audio_base64"`
	Transcript      string `json:"transcript"`
	Language        string `json:"language"`
	RefineEndpoints *bool  `json:"refine_endpoints"`
	SampleRate      int    `json:"sample_rate"`
}

// AlignResponse is the wire response for POST /align.
type AlignResponse struct {
	Words            []WordInterval `json:"words"`
	TotalDuration    float64        `json:"total_duration"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	ModelUsed        string         `json:"model_used"`
	Refined          bool           `json:"refined"`
}

// HealthResponse is the wire response for GET /health.
type HealthResponse struct {
	Status       string   `json:"status"`
	ModelsLoaded []string `json:"models_loaded"`
	Version      string   `json:"version"`
}

// ServiceInfo is the wire response for GET /.
type ServiceInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// ErrorResponse is the wire envelope for non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Event types for the Kafka lifecycle topics.
const (
	EventAlignmentCompleted = "alignment.completed"
	EventAlignmentFailed    = "alignment.failed"
)

// AlignmentCompleted is published after a request reaches the Completed state.
type AlignmentCompleted struct {
	EventType        string  `json:"eventType"`
	RequestID        string  `json:"requestId"`
	Language         string  `json:"language"`
	Model            string  `json:"model"`
	WordCount        int     `json:"wordCount"`
	TotalDuration    float64 `json:"totalDuration"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	Refined          bool    `json:"refined"`
	AvgShiftMs       float64 `json:"avgShiftMs"`
	Timestamp        int64   `json:"timestamp"`
}

// AlignmentFailed is published when a request reaches the Failed state.
type AlignmentFailed struct {
	EventType string `json:"eventType"`
	RequestID string `json:"requestId"`
	Language  string `json:"language"`
	Stage     string `json:"stage"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
