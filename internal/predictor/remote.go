package predictor

import (
	"context"
	"fmt"
	"math"

	commonhttp "vehicle-pricing/internal/common/http"
	"vehicle-pricing/internal/encoder"
)

type remoteRequest struct {
	Features []float64 `json:"features"`
}

type remoteResponse struct {
	Prediction *float64 `json:"prediction"`
}

// RemotePredictor delegates inference to a model-serving endpoint.
type RemotePredictor struct {
	client *commonhttp.Client
	url    string
}

func NewRemotePredictor(client *commonhttp.Client, url string) *RemotePredictor {
	return &RemotePredictor{client: client, url: url}
}

func (r *RemotePredictor) Predict(ctx context.Context, v encoder.FeatureVector) (float64, error) {
	var resp remoteResponse
	if err := r.client.PostJSON(ctx, r.url, remoteRequest{Features: v.Slice()}, &resp); err != nil {
		return math.NaN(), err
	}
	if resp.Prediction == nil {
		return math.NaN(), fmt.Errorf("model server response has no prediction")
	}
	return *resp.Prediction, nil
}
