// Package segmentation fits and applies the customer clustering model.
// Training is an exclusive offline operation that produces a versioned
// artifact; scoring is a stateless read of that artifact and is safe to run
// from any number of goroutines.
package segmentation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ArtifactVersion is the current on-disk artifact schema version. Decoding
// rejects any other version.
const ArtifactVersion = 1

// FeatureOrder is the canonical ordering of RFM features in scaler vectors
// and centroid rows. Monetary is log1p-transformed before standardization;
// the transform is part of the artifact contract, applied identically at fit
// and apply time.
var FeatureOrder = []string{"recency", "frequency", "log1p_monetary"}

// Artifact bundles the feature scaler and the cluster centroids trained
// together as one immutable blob. A scaler paired with a foreign centroid
// set silently produces wrong assignments, so the two are never persisted
// apart.
//
// An artifact is loaded once at process start and treated as read-only for
// the lifetime of the process; concurrent Predict calls need no locking.
type Artifact struct {
	Version   int       `json:"version"`
	ID        uuid.UUID `json:"id"`
	TrainedAt time.Time `json:"trained_at"`

	K        int      `json:"k"`
	Seed     int64    `json:"seed"`
	Features []string `json:"features"`

	// Per-feature standardization parameters, in Features order.
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`

	// K rows of len(Features) columns, in standardized space.
	Centroids [][]float64 `json:"centroids"`
}

// Encode serializes the artifact to its persisted blob form.
func (a *Artifact) Encode() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// DecodeArtifact parses and validates a persisted artifact blob.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("decode artifact: unsupported version %d (want %d)", a.Version, ArtifactVersion)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// validate checks internal shape consistency.
func (a *Artifact) validate() error {
	n := len(a.Features)
	if n == 0 {
		return &ModelMismatchError{Expected: len(FeatureOrder), Actual: 0, Detail: "artifact has no feature order"}
	}
	if len(a.Means) != n || len(a.Scales) != n {
		return &ModelMismatchError{Expected: n, Actual: len(a.Means), Detail: "scaler shape does not match feature order"}
	}
	if len(a.Centroids) != a.K {
		return &ModelMismatchError{Expected: a.K, Actual: len(a.Centroids), Detail: "centroid count does not match k"}
	}
	for _, c := range a.Centroids {
		if len(c) != n {
			return &ModelMismatchError{Expected: n, Actual: len(c), Detail: "centroid width does not match feature order"}
		}
	}
	return nil
}

// compatibleWith verifies the artifact was trained on the caller's feature
// schema.
func (a *Artifact) compatibleWith(features []string) error {
	if len(a.Features) != len(features) {
		return &ModelMismatchError{Expected: len(a.Features), Actual: len(features)}
	}
	for i, f := range features {
		if a.Features[i] != f {
			return &ModelMismatchError{
				Expected: len(a.Features),
				Actual:   len(features),
				Detail:   fmt.Sprintf("feature %d is %q in artifact, %q in input", i, a.Features[i], f),
			}
		}
	}
	return nil
}
