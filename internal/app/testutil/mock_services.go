package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/health"
	"speech-transcription/internal/app/transcription"
)

// MockServices contains all mock services for handler tests
type MockServices struct {
	TranscriptionService *MockTranscriptionService
	HealthService        *MockHealthService
}

// NewMockServices creates a new instance of mock services
func NewMockServices(t *testing.T) *MockServices {
	return &MockServices{
		TranscriptionService: NewMockTranscriptionService(t),
		HealthService:        NewMockHealthService(t),
	}
}

// MockTranscriptionService is a mock implementation of TranscriptionService.
// The upload body is drained into Received so tests can assert on the bytes.
type MockTranscriptionService struct {
	mock.Mock
	Received []byte
}

func NewMockTranscriptionService(t *testing.T) *MockTranscriptionService {
	m := &MockTranscriptionService{}
	m.Test(t)
	return m
}

func (m *MockTranscriptionService) Transcribe(ctx context.Context, upload audio.Upload) transcription.Result {
	if upload.Body != nil {
		m.Received, _ = io.ReadAll(upload.Body)
	}
	upload.Body = nil
	args := m.Called(ctx, upload)
	return args.Get(0).(transcription.Result)
}

// MockHealthService is a mock implementation of HealthService
type MockHealthService struct {
	mock.Mock
}

func NewMockHealthService(t *testing.T) *MockHealthService {
	m := &MockHealthService{}
	m.Test(t)
	return m
}

func (m *MockHealthService) Health() health.Status {
	args := m.Called()
	return args.Get(0).(health.Status)
}

func (m *MockHealthService) ModelInfo() health.ModelInfo {
	args := m.Called()
	return args.Get(0).(health.ModelInfo)
}
