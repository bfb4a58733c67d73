package segmentation

import (
	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// Scorer applies a loaded artifact to RFM features. It is stateless beyond
// the immutable artifact and safe for concurrent use.
type Scorer struct {
	artifact *Artifact
}

// NewScorer wraps a loaded artifact. The artifact must not be mutated after
// this call.
func NewScorer(a *Artifact) *Scorer {
	return &Scorer{artifact: a}
}

// Artifact returns the model artifact backing this scorer.
func (s *Scorer) Artifact() *Artifact { return s.artifact }

// Predict assigns each customer to its nearest centroid in standardized
// feature space, using the scaler stored in the artifact, never a re-fit.
// Equal distances resolve to the lower cluster index, so repeated calls over
// the same input always agree.
//
// A nil artifact fails with ErrModelNotFound; a feature-schema mismatch
// fails with ModelMismatchError.
func (s *Scorer) Predict(features []domain.RFMVector) ([]domain.SegmentAssignment, error) {
	if s.artifact == nil {
		return nil, ErrModelNotFound
	}
	if err := s.artifact.compatibleWith(FeatureOrder); err != nil {
		return nil, err
	}

	assignments := make([]domain.SegmentAssignment, len(features))
	for i, v := range features {
		p := featureRow(v)
		standardize(p, s.artifact.Means, s.artifact.Scales)
		assignments[i] = domain.SegmentAssignment{
			CustomerID: v.CustomerID,
			Cluster:    nearestCentroid(p, s.artifact.Centroids),
		}
	}
	return assignments, nil
}
