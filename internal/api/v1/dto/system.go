package dto

import (
	"time"

	"speech-transcription/internal/app/health"
)

// IndexResponse describes the service at GET /
type IndexResponse struct {
	Title         string            `json:"title" example:"Speech Transcription API"`
	Description   string            `json:"description"`
	Version       string            `json:"version" example:"1.0.0"`
	Documentation string            `json:"documentation" example:"/swagger/index.html"`
	Endpoints     map[string]string `json:"endpoints"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string  `json:"status" enums:"healthy,starting,unhealthy" example:"healthy"`
	Ready         bool    `json:"ready" example:"true"`
	EngineState   string  `json:"engine_state" enums:"uninitialized,loading,ready,failed" example:"ready"`
	Device        string  `json:"device" example:"cpu"`
	Model         string  `json:"model" example:"base"`
	Error         string  `json:"error,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds" example:"12.5"`
	Timestamp     string  `json:"timestamp" example:"2025-01-01T00:00:00Z"`
}

// ModelInfoResponse is the body of GET /models/info
type ModelInfoResponse struct {
	ModelName        string   `json:"model_name" example:"base"`
	ModelType        string   `json:"model_type" example:"whisper"`
	Backend          string   `json:"backend" example:"whisper-cli"`
	Device           string   `json:"device" example:"cpu"`
	SampleRate       int      `json:"sample_rate" example:"16000"`
	SupportedFormats []string `json:"supported_formats" example:"wav,mp3,flac,m4a,ogg"`
	MaxFileSizeBytes int64    `json:"max_file_size_bytes" example:"52428800"`
	State            string   `json:"state" example:"ready"`
	LoadedAt         string   `json:"loaded_at,omitempty"`
	LoadSeconds      float64  `json:"load_seconds,omitempty"`
	ConcurrencyLimit int      `json:"concurrency_limit" example:"1"`
}

// ToHealthResponse converts a reporter snapshot
func ToHealthResponse(st health.Status) HealthResponse {
	return HealthResponse{
		Status:        st.Status,
		Ready:         st.Ready,
		EngineState:   st.EngineState,
		Device:        st.Device,
		Model:         st.Model,
		Error:         st.Error,
		UptimeSeconds: st.UptimeSeconds,
		Timestamp:     st.Timestamp.Format(time.RFC3339),
	}
}

func ToModelInfoResponse(info health.ModelInfo) ModelInfoResponse {
	return ModelInfoResponse(info)
}
