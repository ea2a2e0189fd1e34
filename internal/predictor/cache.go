package predictor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/common/metrics"
	"vehicle-pricing/internal/encoder"

	"github.com/redis/go-redis/v9"
)

// CachedPredictor is a Redis cache-aside decorator. Cache failures are logged and
// never fail a prediction.
type CachedPredictor struct {
	next    Predictor
	rdb     redis.Cmdable
	ttl     time.Duration
	version string
	logger  logger.Logger
}

func NewCachedPredictor(next Predictor, rdb redis.Cmdable, ttl time.Duration, modelVersion string, log logger.Logger) *CachedPredictor {
	return &CachedPredictor{
		next:    next,
		rdb:     rdb,
		ttl:     ttl,
		version: modelVersion,
		logger:  log,
	}
}

// CacheKey scopes entries by model version so a redeploy never serves stale prices.
func CacheKey(modelVersion string, v encoder.FeatureVector) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, x := range v {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("price:%s:%016x", modelVersion, h.Sum64())
}

func (c *CachedPredictor) Predict(ctx context.Context, v encoder.FeatureVector) (float64, error) {
	key := CacheKey(c.version, v)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if price, perr := strconv.ParseFloat(cached, 64); perr == nil {
			metrics.PredictionCacheResults.WithLabelValues("hit").Inc()
			return price, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", map[string]interface{}{"key": key})
		metrics.PredictionCacheResults.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.PredictionCacheResults.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("Prediction cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		metrics.PredictionCacheResults.WithLabelValues("error").Inc()
	}

	price, err := c.next.Predict(ctx, v)
	if err != nil {
		return price, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return price, nil
	}

	if err := c.rdb.Set(ctx, key, strconv.FormatFloat(price, 'g', -1, 64), c.ttl).Err(); err != nil {
		c.logger.Warn("Prediction cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return price, nil
}
