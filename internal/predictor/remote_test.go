package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonhttp "vehicle-pricing/internal/common/http"
	"vehicle-pricing/internal/encoder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemotePredictor_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Features, encoder.NumFeatures)
		_, _ = w.Write([]byte(`{"prediction": 15234.5}`))
	}))
	defer srv.Close()

	p := NewRemotePredictor(commonhttp.NewClient(time.Second, nil), srv.URL)
	price, err := p.Predict(context.Background(), vectorWith(7, 35000))
	require.NoError(t, err)
	assert.Equal(t, 15234.5, price)
}

func TestRemotePredictor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model crashed", http.StatusInternalServerError)
			},
		},
		{
			name: "missing prediction",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"result": 1}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewRemotePredictor(commonhttp.NewClient(time.Second, nil), srv.URL)
			_, err := p.Predict(context.Background(), vectorWith(1, 1))
			assert.Error(t, err)
		})
	}
}
