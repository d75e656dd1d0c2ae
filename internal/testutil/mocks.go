// Package testutil holds in-memory implementations of the core ports.
package testutil

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	"github.com/sirupsen/logrus"
)

// Logger returns a logger that discards its output.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)
	return log
}

// MockModel is a test implementation of ports.VisionModel
type MockModel struct {
	DetectText  string
	DetectErr   error
	Generated   []byte
	GenerateErr error

	mu        sync.Mutex
	Prompts   []string
	MIMETypes []string
	Images    [][]byte
}

func (m *MockModel) DetectObjects(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.track(prompt, image, mimeType)
	return m.DetectText, m.DetectErr
}

func (m *MockModel) GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	m.track(prompt, image, mimeType)
	return m.Generated, m.GenerateErr
}

func (m *MockModel) track(prompt string, image []byte, mimeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	m.MIMETypes = append(m.MIMETypes, mimeType)
	m.Images = append(m.Images, image)
}

// MockStore is a test implementation of ports.AssetStore
type MockStore struct {
	Origins map[string]domain.OriginImage
	Created map[string][]byte
	SaveErr error
	ListErr error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Origins: make(map[string]domain.OriginImage),
		Created: make(map[string][]byte),
	}
}

func (m *MockStore) Origin(model domain.PlasticType, assetType domain.AssetType) (domain.OriginImage, error) {
	o, ok := m.Origins[string(model)+"_"+string(assetType)]
	if !ok {
		return domain.OriginImage{}, domain.ErrOriginNotFound
	}
	return o, nil
}

func (m *MockStore) SaveCreated(name string, data []byte) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Created[name] = data
	return nil
}

func (m *MockStore) ListCreated() ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	names := make([]string, 0, len(m.Created))
	for n := range m.Created {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockStore) ReadCreated(name string) ([]byte, error) {
	data, ok := m.Created[name]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return data, nil
}

// MockHistory is a test implementation of ports.HistoryRecorder
type MockHistory struct {
	mu        sync.Mutex
	Records   []domain.DetectionRecord
	RecordErr error
}

func (m *MockHistory) Record(ctx context.Context, rec domain.DetectionRecord) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.Records) + 1)
	m.Records = append(m.Records, rec)
	return nil
}

func (m *MockHistory) Recent(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.DetectionRecord{}
	for i := len(m.Records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Records[i])
	}
	return out, nil
}
