package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepo struct{ mock.Mock }

func (m *MockDocumentRepo) CountDocuments(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepo) CountChunks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockFailureRepo struct{ mock.Mock }

func (m *MockFailureRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type stubIndex struct{ n int }

func (s stubIndex) Len() int { return s.n }

func TestHandler_GetStats_Table(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockDocumentRepo, *MockFailureRepo)
		indexLen   int
		wantStatus int
		checkBody  func(*testing.T, map[string]interface{})
	}{
		{
			name: "Success",
			setupMocks: func(d *MockDocumentRepo, f *MockFailureRepo) {
				d.On("CountDocuments", mock.Anything).Return(12, nil)
				d.On("CountChunks", mock.Anything).Return(1800, nil)
				f.On("Count", mock.Anything).Return(2, nil)
			},
			indexLen:   1800,
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.EqualValues(t, 12, data["documents"])
				assert.EqualValues(t, 1800, data["chunks"])
				assert.EqualValues(t, 1800, data["indexed_chunks"])
				assert.EqualValues(t, 2, data["ingest_failures"])
			},
		},
		{
			name: "DocumentCountFails",
			setupMocks: func(d *MockDocumentRepo, f *MockFailureRepo) {
				d.On("CountDocuments", mock.Anything).Return(0, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "FailureCountFails",
			setupMocks: func(d *MockDocumentRepo, f *MockFailureRepo) {
				d.On("CountDocuments", mock.Anything).Return(12, nil)
				d.On("CountChunks", mock.Anything).Return(1800, nil)
				f.On("Count", mock.Anything).Return(0, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := new(MockDocumentRepo)
			failures := new(MockFailureRepo)
			tt.setupMocks(docs, failures)

			h := NewHandler(docs, failures, stubIndex{n: tt.indexLen})
			req := httptest.NewRequest("GET", "/stats", nil)
			rec := httptest.NewRecorder()

			h.GetStats(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.checkBody != nil {
				var body map[string]interface{}
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				tt.checkBody(t, body)
			}
		})
	}
}
