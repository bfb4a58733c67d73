package insight

import (
	"context"
	"sort"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// KeyInsights names the best-performing offer type, segment, and channel for
// a snapshot, with the mean success rate behind each pick. Groups with a NaN
// rate (no received offers) never win a ranking.
type KeyInsights struct {
	TopOfferType     string  `json:"top_offer_type"`
	TopOfferTypeRate float64 `json:"top_offer_type_rate"`
	TopSegment       int     `json:"top_segment"`
	TopSegmentRate   float64 `json:"top_segment_rate"`
	TopChannel       string  `json:"top_channel"`
	TopChannelRate   float64 `json:"top_channel_rate"`
}

// Insights ranks the performance tables for the filtered snapshot.
func (e *Engine) Insights(ctx context.Context, offers []domain.OfferEvent, txs []domain.TransactionEvent, f Filter) (*KeyInsights, error) {
	tables, err := e.Performance(ctx, offers, txs, f)
	if err != nil {
		return nil, err
	}

	ins := &KeyInsights{TopSegment: domain.NoCluster}
	bestType, bestSegment, bestChannel := -1.0, -1.0, -1.0
	for _, r := range tables.ByOfferType {
		if isRanked(r.ConversionRate) && r.ConversionRate > bestType {
			bestType = r.ConversionRate
			ins.TopOfferType = r.OfferType
			ins.TopOfferTypeRate = r.ConversionRate
		}
	}
	for _, r := range tables.ByOfferTypeSegment {
		if r.Cluster == domain.NoCluster {
			continue
		}
		if isRanked(r.ConversionRate) && r.ConversionRate > bestSegment {
			bestSegment = r.ConversionRate
			ins.TopSegment = r.Cluster
			ins.TopSegmentRate = r.ConversionRate
		}
	}
	for _, r := range tables.ByChannel {
		if isRanked(r.ConversionRate) && r.ConversionRate > bestChannel {
			bestChannel = r.ConversionRate
			ins.TopChannel = r.Channel
			ins.TopChannelRate = r.ConversionRate
		}
	}
	return ins, nil
}

// BasketStat summarizes purchasing behavior for one segment.
type BasketStat struct {
	Cluster         int     `json:"cluster"`
	Customers       int     `json:"customers"`
	AvgTransactions float64 `json:"avg_transactions"`
	AvgBasketSize   float64 `json:"avg_basket_size"`
}

// BasketStats averages per-customer transaction count and basket size within
// each segment of the snapshot.
func (e *Engine) BasketStats(ctx context.Context, txs []domain.TransactionEvent, f Filter) ([]BasketStat, error) {
	seg, err := e.Segments(ctx, txs, f)
	if err != nil {
		return nil, err
	}

	type custAcc struct {
		count int
		spend float64
	}
	perCustomer := make(map[string]*custAcc)
	for _, tx := range f.Transactions(txs) {
		a := perCustomer[tx.CustomerID]
		if a == nil {
			a = &custAcc{}
			perCustomer[tx.CustomerID] = a
		}
		a.count++
		a.spend += tx.Amount
	}

	type clustAcc struct {
		customers int
		txSum     float64
		basketSum float64
	}
	clusters := make(map[int]*clustAcc)
	for _, asg := range seg.Assignments {
		ca := perCustomer[asg.CustomerID]
		if ca == nil || ca.count == 0 {
			continue
		}
		g := clusters[asg.Cluster]
		if g == nil {
			g = &clustAcc{}
			clusters[asg.Cluster] = g
		}
		g.customers++
		g.txSum += float64(ca.count)
		g.basketSum += ca.spend / float64(ca.count)
	}

	stats := make([]BasketStat, 0, len(clusters))
	for c, g := range clusters {
		stats = append(stats, BasketStat{
			Cluster:         c,
			Customers:       g.customers,
			AvgTransactions: g.txSum / float64(g.customers),
			AvgBasketSize:   g.basketSum / float64(g.customers),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Cluster < stats[j].Cluster })
	return stats, nil
}

// Summary carries the headline KPI values for a snapshot.
type Summary struct {
	TotalCustomers int     `json:"total_customers"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalTxns      int     `json:"total_transactions"`
	AvgTxnValue    float64 `json:"avg_transaction_value"`
	AvgRecency     float64 `json:"avg_recency_days"`
	AvgFrequency   float64 `json:"avg_frequency"`
	AvgMonetary    float64 `json:"avg_monetary"`
}

// Summarize computes the headline metrics over the filtered snapshot.
func (e *Engine) Summarize(ctx context.Context, txs []domain.TransactionEvent, f Filter) (*Summary, error) {
	seg, err := e.Segments(ctx, txs, f)
	if err != nil {
		return nil, err
	}

	filtered := f.Transactions(txs)
	s := &Summary{
		TotalCustomers: len(seg.Features),
		TotalTxns:      len(filtered),
	}
	for _, tx := range filtered {
		s.TotalRevenue += tx.Amount
	}
	if s.TotalTxns > 0 {
		s.AvgTxnValue = s.TotalRevenue / float64(s.TotalTxns)
	}
	for _, v := range seg.Features {
		s.AvgRecency += float64(v.Recency)
		s.AvgFrequency += float64(v.Frequency)
		s.AvgMonetary += v.Monetary
	}
	if n := float64(len(seg.Features)); n > 0 {
		s.AvgRecency /= n
		s.AvgFrequency /= n
		s.AvgMonetary /= n
	}
	return s, nil
}
