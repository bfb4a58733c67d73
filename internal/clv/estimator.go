// Package clv estimates customer lifetime value as total spend normalized by
// customer age.
package clv

import (
	"fmt"
	"sort"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// Row is one transaction joined with the customer's reported age. Age is nil
// when demographics were unavailable for the customer.
type Row struct {
	CustomerID string
	Amount     float64
	Age        *float64
}

// InvalidAgeError reports a customer excluded from the CLV table because of a
// non-positive or missing age. The rest of the batch is unaffected.
type InvalidAgeError struct {
	CustomerID string
	Age        float64
	Missing    bool
}

func (e *InvalidAgeError) Error() string {
	if e.Missing {
		return fmt.Sprintf("clv: customer %s has no reported age", e.CustomerID)
	}
	return fmt.Sprintf("clv: customer %s has non-positive age %.1f", e.CustomerID, e.Age)
}

// JoinDemographics builds CLV input rows by joining transactions against the
// ages reported on the customer's offer events.
func JoinDemographics(txs []domain.TransactionEvent, offers []domain.OfferEvent) []Row {
	ages := make(map[string]float64, len(offers))
	counts := make(map[string]int, len(offers))
	for _, o := range offers {
		if o.Age != nil {
			ages[o.CustomerID] += float64(*o.Age)
			counts[o.CustomerID]++
		}
	}

	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		row := Row{CustomerID: tx.CustomerID, Amount: tx.Amount}
		if n := counts[tx.CustomerID]; n > 0 {
			age := ages[tx.CustomerID] / float64(n)
			row.Age = &age
		}
		rows = append(rows, row)
	}
	return rows
}

// Estimate groups rows by customer, sums spend, and averages the reported
// age. AnnualValue = TotalSpend / Age; customers with a missing or
// non-positive age are excluded from the output and reported as row errors
// instead of propagating Inf or NaN.
func Estimate(rows []Row) ([]domain.CLVRecord, []*InvalidAgeError) {
	type acc struct {
		spend   float64
		ageSum  float64
		ageRows int
	}
	byCustomer := make(map[string]*acc)
	for _, r := range rows {
		a := byCustomer[r.CustomerID]
		if a == nil {
			a = &acc{}
			byCustomer[r.CustomerID] = a
		}
		a.spend += r.Amount
		if r.Age != nil {
			a.ageSum += *r.Age
			a.ageRows++
		}
	}

	var ageErrs []*InvalidAgeError
	records := make([]domain.CLVRecord, 0, len(byCustomer))
	for id, a := range byCustomer {
		if a.ageRows == 0 {
			ageErrs = append(ageErrs, &InvalidAgeError{CustomerID: id, Missing: true})
			continue
		}
		age := a.ageSum / float64(a.ageRows)
		if age <= 0 {
			ageErrs = append(ageErrs, &InvalidAgeError{CustomerID: id, Age: age})
			continue
		}
		records = append(records, domain.CLVRecord{
			CustomerID:  id,
			TotalSpend:  a.spend,
			Age:         age,
			AnnualValue: a.spend / age,
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CustomerID < records[j].CustomerID })
	sort.Slice(ageErrs, func(i, j int) bool { return ageErrs[i].CustomerID < ageErrs[j].CustomerID })
	return records, ageErrs
}
