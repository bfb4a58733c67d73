package domain

// RFMVector is the per-customer Recency/Frequency/Monetary behavior summary.
//
// Recency is measured against the most recent transaction in the snapshot the
// vector was built from, not wall-clock now. It is only comparable within that
// snapshot and must be rebuilt whenever the underlying transaction set changes.
type RFMVector struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`   // whole days since the customer's last transaction
	Frequency  int     `json:"frequency"` // transaction row count
	Monetary   float64 `json:"monetary"`  // total spend, floored at zero
}

// SegmentAssignment maps a customer to a behavioral cluster. Assignments are
// a projection of the model over current features, recomputed on every apply
// call, never stored as authoritative state.
type SegmentAssignment struct {
	CustomerID string `json:"customer_id"`
	Cluster    int    `json:"cluster"`
}
