// Package performance computes offer conversion aggregates grouped by offer
// type, delivery channel, and customer segment. All functions are pure and
// recompute from their inputs on every call; records are never stored apart
// from the events that produced them.
package performance

import (
	"math"
	"sort"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// SegmentIndex builds a customer → cluster lookup from scorer output.
func SegmentIndex(assignments []domain.SegmentAssignment) map[string]int {
	idx := make(map[string]int, len(assignments))
	for _, a := range assignments {
		idx[a.CustomerID] = a.Cluster
	}
	return idx
}

type groupAcc struct {
	rows      int
	received  int
	successes int
}

func (g *groupAcc) add(o domain.OfferEvent) {
	g.rows++
	if o.Event == domain.OfferReceived {
		g.received++
		if o.OfferSuccess {
			g.successes++
		}
	}
}

// rate is the mean success over received offers. A group that never received
// an offer has no meaningful denominator and reports NaN; callers must filter
// or handle it rather than treat it as zero.
func (g *groupAcc) rate() float64 {
	if g.received == 0 {
		return math.NaN()
	}
	return float64(g.successes) / float64(g.received)
}

// ByOfferType aggregates conversion by offer type.
func ByOfferType(offers []domain.OfferEvent) []domain.PerformanceRecord {
	groups := make(map[string]*groupAcc)
	for _, o := range offers {
		g := groups[o.OfferType]
		if g == nil {
			g = &groupAcc{}
			groups[o.OfferType] = g
		}
		g.add(o)
	}

	records := make([]domain.PerformanceRecord, 0, len(groups))
	for offerType, g := range groups {
		records = append(records, domain.PerformanceRecord{
			OfferType:      offerType,
			Cluster:        domain.NoCluster,
			ConversionRate: g.rate(),
			SampleCount:    g.rows,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].OfferType < records[j].OfferType })
	return records
}

// ByOfferTypeSegment aggregates conversion by (offer type, cluster). Offers
// whose customer has no segment assignment (no transaction history in the
// scored snapshot) are grouped under domain.NoCluster.
func ByOfferTypeSegment(offers []domain.OfferEvent, segments map[string]int) []domain.PerformanceRecord {
	type key struct {
		offerType string
		cluster   int
	}
	groups := make(map[key]*groupAcc)
	for _, o := range offers {
		cluster, ok := segments[o.CustomerID]
		if !ok {
			cluster = domain.NoCluster
		}
		k := key{o.OfferType, cluster}
		g := groups[k]
		if g == nil {
			g = &groupAcc{}
			groups[k] = g
		}
		g.add(o)
	}

	records := make([]domain.PerformanceRecord, 0, len(groups))
	for k, g := range groups {
		records = append(records, domain.PerformanceRecord{
			OfferType:      k.offerType,
			Cluster:        k.cluster,
			ConversionRate: g.rate(),
			SampleCount:    g.rows,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].OfferType != records[j].OfferType {
			return records[i].OfferType < records[j].OfferType
		}
		return records[i].Cluster < records[j].Cluster
	})
	return records
}

// ByChannel aggregates conversion by delivery channel. An offer delivered on
// several channels contributes one full row per channel, not a fractional
// split, so a success counts against every channel that carried it.
func ByChannel(offers []domain.OfferEvent) []domain.PerformanceRecord {
	groups := make(map[string]*groupAcc)
	for _, o := range offers {
		for _, ch := range o.Channels {
			g := groups[ch]
			if g == nil {
				g = &groupAcc{}
				groups[ch] = g
			}
			g.add(o)
		}
	}

	records := make([]domain.PerformanceRecord, 0, len(groups))
	for ch, g := range groups {
		records = append(records, domain.PerformanceRecord{
			Channel:        ch,
			Cluster:        domain.NoCluster,
			ConversionRate: g.rate(),
			SampleCount:    g.rows,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Channel < records[j].Channel })
	return records
}
