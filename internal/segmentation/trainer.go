package segmentation

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mavenlabs/rewards-insight/internal/domain"
	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
)

// Trainer fits the standardization + clustering pipeline. Training is an
// offline, exclusive operation: never run two fits against the same artifact
// location concurrently, and never mutate a published artifact in place.
// Fit, then atomically swap the file.
type Trainer struct {
	K    int
	Seed int64
}

// NewTrainer returns a trainer with the given cluster count and RNG seed.
func NewTrainer(k int, seed int64) *Trainer {
	return &Trainer{K: k, Seed: seed}
}

// Fit standardizes the RFM table (log1p on monetary, then zero mean / unit
// variance per feature) and runs k-means, producing a fresh artifact. The
// same seed over the same table always yields the same centroids.
//
// Fewer distinct customers than K fails with InsufficientDataError.
func (t *Trainer) Fit(features []domain.RFMVector) (*Artifact, error) {
	if len(features) < t.K {
		return nil, &InsufficientDataError{Required: t.K, Got: len(features)}
	}

	points := make([][]float64, len(features))
	for i, v := range features {
		points[i] = featureRow(v)
	}

	means, scales := fitScaler(points)
	for _, p := range points {
		standardize(p, means, scales)
	}

	rng := rand.New(rand.NewSource(t.Seed))
	centroids := lloyd(points, t.K, rng)

	a := &Artifact{
		Version:   ArtifactVersion,
		ID:        uuid.New(),
		TrainedAt: time.Now().UTC(),
		K:         t.K,
		Seed:      t.Seed,
		Features:  append([]string(nil), FeatureOrder...),
		Means:     means,
		Scales:    scales,
		Centroids: centroids,
	}

	logger.Info("segmentation model trained",
		"artifact_id", a.ID.String(),
		"k", t.K,
		"customers", len(features))
	return a, nil
}

// featureRow maps an RFM vector into FeatureOrder space, applying the log1p
// monetary transform.
func featureRow(v domain.RFMVector) []float64 {
	return []float64{
		float64(v.Recency),
		float64(v.Frequency),
		math.Log1p(v.Monetary),
	}
}

// fitScaler computes the per-feature mean and scale (population standard
// deviation). A zero scale degrades to 1 so constant features pass through
// unchanged instead of dividing by zero.
func fitScaler(points [][]float64) (means, scales []float64) {
	dim := len(points[0])
	n := float64(len(points))

	means = make([]float64, dim)
	for _, p := range points {
		for d, v := range p {
			means[d] += v
		}
	}
	for d := range means {
		means[d] /= n
	}

	scales = make([]float64, dim)
	for _, p := range points {
		for d, v := range p {
			diff := v - means[d]
			scales[d] += diff * diff
		}
	}
	for d := range scales {
		scales[d] = math.Sqrt(scales[d] / n)
		if scales[d] == 0 {
			scales[d] = 1
		}
	}
	return means, scales
}

// standardize rescales a feature row in place.
func standardize(p []float64, means, scales []float64) {
	for d := range p {
		p[d] = (p[d] - means[d]) / scales[d]
	}
}
