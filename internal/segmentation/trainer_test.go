package segmentation

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// wellSeparated builds k tight groups of customers far apart on every
// feature, n customers per group. Monetary grows exponentially so the groups
// stay separated after the log1p transform.
func wellSeparated(k, n int) []domain.RFMVector {
	var vectors []domain.RFMVector
	for g := 0; g < k; g++ {
		for i := 0; i < n; i++ {
			vectors = append(vectors, domain.RFMVector{
				CustomerID: fmt.Sprintf("%c-%02d", 'a'+g, i),
				Recency:    g*100 + i,
				Frequency:  g*50 + i + 1,
				Monetary:   math.Expm1(float64(3*g)) + float64(i),
			})
		}
	}
	return vectors
}

func TestFit_InsufficientData(t *testing.T) {
	trainer := NewTrainer(4, 42)
	_, err := trainer.Fit(wellSeparated(1, 3))

	var insufficientErr *InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 4, insufficientErr.Required)
	assert.Equal(t, 3, insufficientErr.Got)
}

func TestFit_Shape(t *testing.T) {
	trainer := NewTrainer(3, 42)
	a, err := trainer.Fit(wellSeparated(3, 10))
	require.NoError(t, err)

	assert.Equal(t, ArtifactVersion, a.Version)
	assert.Equal(t, 3, a.K)
	assert.Equal(t, FeatureOrder, a.Features)
	assert.Len(t, a.Means, len(FeatureOrder))
	assert.Len(t, a.Scales, len(FeatureOrder))
	require.Len(t, a.Centroids, 3)
	for _, c := range a.Centroids {
		assert.Len(t, c, len(FeatureOrder))
	}
	for _, s := range a.Scales {
		assert.Greater(t, s, 0.0)
	}
}

func TestFit_Deterministic(t *testing.T) {
	features := wellSeparated(4, 8)
	a1, err := NewTrainer(4, 42).Fit(features)
	require.NoError(t, err)
	a2, err := NewTrainer(4, 42).Fit(features)
	require.NoError(t, err)

	assert.Equal(t, a1.Centroids, a2.Centroids)
	assert.Equal(t, a1.Means, a2.Means)
	assert.Equal(t, a1.Scales, a2.Scales)
}

func TestFitPredict_RecoversClusters(t *testing.T) {
	k := 4
	features := wellSeparated(k, 12)
	a, err := NewTrainer(k, 42).Fit(features)
	require.NoError(t, err)

	assignments, err := NewScorer(a).Predict(features)
	require.NoError(t, err)
	require.Len(t, assignments, len(features))

	seen := make(map[int]bool)
	for _, asg := range assignments {
		assert.GreaterOrEqual(t, asg.Cluster, 0)
		assert.Less(t, asg.Cluster, k)
		seen[asg.Cluster] = true
	}
	// Well-separated groups recover all k clusters.
	assert.Len(t, seen, k)

	// Customers from the same synthetic group land together.
	byGroup := make(map[byte]map[int]bool)
	for i, asg := range assignments {
		g := features[i].CustomerID[0]
		if byGroup[g] == nil {
			byGroup[g] = make(map[int]bool)
		}
		byGroup[g][asg.Cluster] = true
	}
	for g, clusters := range byGroup {
		assert.Len(t, clusters, 1, "group %c split across clusters", g)
	}
}

func TestFitPredict_MonetaryScenario(t *testing.T) {
	// Three customers, identical recency and frequency, spends of $10,
	// $500, $5000. With K=2 the two extremes must never share a cluster,
	// and repeated runs must agree exactly.
	features := []domain.RFMVector{
		{CustomerID: "low", Recency: 0, Frequency: 1, Monetary: 10},
		{CustomerID: "mid", Recency: 0, Frequency: 1, Monetary: 500},
		{CustomerID: "high", Recency: 0, Frequency: 1, Monetary: 5000},
	}

	var prev []domain.SegmentAssignment
	for run := 0; run < 5; run++ {
		a, err := NewTrainer(2, 42).Fit(features)
		require.NoError(t, err)
		assignments, err := NewScorer(a).Predict(features)
		require.NoError(t, err)

		assert.NotEqual(t, assignments[0].Cluster, assignments[2].Cluster,
			"extreme spenders must not share a cluster")
		if prev != nil {
			assert.Equal(t, prev, assignments, "assignments must not swap between runs")
		}
		prev = assignments
	}
}

func TestPredict_Idempotent(t *testing.T) {
	features := wellSeparated(3, 6)
	a, err := NewTrainer(3, 7).Fit(features)
	require.NoError(t, err)

	scorer := NewScorer(a)
	first, err := scorer.Predict(features)
	require.NoError(t, err)
	second, err := scorer.Predict(features)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredict_NoModel(t *testing.T) {
	_, err := NewScorer(nil).Predict(wellSeparated(2, 2))
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestPredict_ModelMismatch(t *testing.T) {
	a, err := NewTrainer(2, 42).Fit(wellSeparated(2, 5))
	require.NoError(t, err)

	// An artifact trained against a different feature schema must be
	// rejected with the expected/actual shapes attached.
	a.Features = []string{"recency", "frequency", "monetary", "tenure"}
	a.Means = append(a.Means, 0)
	a.Scales = append(a.Scales, 1)

	_, err = NewScorer(a).Predict(wellSeparated(2, 2))
	var mismatchErr *ModelMismatchError
	require.ErrorAs(t, err, &mismatchErr)
	assert.Equal(t, 4, mismatchErr.Expected)
	assert.Equal(t, 3, mismatchErr.Actual)
}
