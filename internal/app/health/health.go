// Package health derives liveness and model metadata from engine snapshots.
package health

import (
	"time"

	"github.com/samber/lo"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/inference"
)

// Snapshotter is the read-only view of an engine the reporter needs.
type Snapshotter interface {
	Snapshot() inference.Snapshot
}

// Status is the /health payload
type Status struct {
	Status        string    `json:"status"`
	Ready         bool      `json:"ready"`
	EngineState   string    `json:"engine_state"`
	Device        string    `json:"device"`
	Model         string    `json:"model"`
	Error         string    `json:"error,omitempty"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// ModelInfo is the /models/info payload
type ModelInfo struct {
	ModelName        string   `json:"model_name"`
	ModelType        string   `json:"model_type"`
	Backend          string   `json:"backend"`
	Device           string   `json:"device"`
	SampleRate       int      `json:"sample_rate"`
	SupportedFormats []string `json:"supported_formats"`
	MaxFileSizeBytes int64    `json:"max_file_size_bytes"`
	State            string   `json:"state"`
	LoadedAt         string   `json:"loaded_at,omitempty"`
	LoadSeconds      float64  `json:"load_seconds,omitempty"`
	ConcurrencyLimit int      `json:"concurrency_limit"`
}

// Reporter never loads the model and never waits on it.
type Reporter struct {
	engine    Snapshotter
	formats   []audio.Format
	maxBytes  int64
	startedAt time.Time
	now       func() time.Time
}

func NewReporter(engine Snapshotter, formats []audio.Format, maxBytes int64) *Reporter {
	return &Reporter{
		engine:    engine,
		formats:   formats,
		maxBytes:  maxBytes,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Health summarizes service readiness. Status is "healthy" only when the
// engine is ready, "starting" while it loads and "unhealthy" once it failed.
func (r *Reporter) Health() Status {
	snap := r.engine.Snapshot()
	now := r.now()

	st := Status{
		Ready:         snap.State == inference.StateReady,
		EngineState:   snap.State.String(),
		Device:        snap.Info.Device,
		Model:         snap.Info.Model,
		UptimeSeconds: now.Sub(r.startedAt).Seconds(),
		Timestamp:     now.UTC(),
	}
	switch snap.State {
	case inference.StateReady:
		st.Status = "healthy"
	case inference.StateFailed:
		st.Status = "unhealthy"
		if snap.Err != nil {
			st.Error = snap.Err.Error()
		}
	default:
		st.Status = "starting"
	}
	return st
}

func (r *Reporter) ModelInfo() ModelInfo {
	snap := r.engine.Snapshot()
	info := ModelInfo{
		ModelName:        snap.Info.Model,
		ModelType:        snap.Info.ModelType,
		Backend:          snap.Info.Backend,
		Device:           snap.Info.Device,
		SampleRate:       snap.Info.SampleRate,
		SupportedFormats: lo.Map(r.formats, func(f audio.Format, _ int) string { return string(f) }),
		MaxFileSizeBytes: r.maxBytes,
		State:            snap.State.String(),
		ConcurrencyLimit: snap.Concurrency,
	}
	if !snap.LoadedAt.IsZero() {
		info.LoadedAt = snap.LoadedAt.UTC().Format(time.RFC3339)
		info.LoadSeconds = snap.LoadDuration.Seconds()
	}
	return info
}
