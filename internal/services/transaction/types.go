package transaction

import (
	"time"

	"sitex/internal/models"
	"sitex/internal/repositories"
)

// ListQuery is the transaction listing filter as received from the request.
type ListQuery struct {
	Status string `query:"status"`
	From   string `query:"from"`
	To     string `query:"to"`
}

const dateLayout = "2006-01-02"

// Filter converts q into a repository filter. Unparseable dates are ignored
// and To is inclusive of the whole day.
func (q ListQuery) Filter() repositories.TransactionFilter {
	var f repositories.TransactionFilter
	switch s := models.TransactionStatus(q.Status); s {
	case models.TransactionInitiated, models.TransactionPaid, models.TransactionFailed, models.TransactionRefunded:
		f.Status = s
	}
	if from, err := time.Parse(dateLayout, q.From); err == nil {
		f.From = &from
	}
	if to, err := time.Parse(dateLayout, q.To); err == nil {
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	return f
}
