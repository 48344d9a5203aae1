package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderUpdatesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestFinished("success", "", "wav")
	m.RequestFinished("error", "decode", "")
	m.ObserveStage(StageDecode, 20*time.Millisecond)
	m.ObserveAudio(3 * time.Second)
	m.InflightAdd(2)
	m.InflightAdd(-1)
	m.SetEngineState(2)
	m.SetTransientFiles(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("success", "", "wav")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("error", "decode", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Inflight))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EngineState))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TransientFiles))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestHandlerServesExposition(t *testing.T) {
	m := New(nil)
	m.RequestFinished("success", "", "mp3")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `transcription_requests_total{format="mp3",kind="",status="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

var _ Recorder = (*Metrics)(nil)
var _ Recorder = Nop{}
