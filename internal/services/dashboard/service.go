package dashboard

import (
	"context"
	"math"
	"sort"
	"time"

	"sitex/internal/models"
	"sitex/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	recentLimit   = 5
	topLinksLimit = 10
)

type Service interface {
	GetMerchantDashboard(ctx context.Context, ownerID uint) (*models.MerchantDashboardStats, error)
	// GetAnalytics reports paid activity over period (7d, 30d, 90d or year;
	// anything else means 30d) compared with the period before it.
	GetAnalytics(ctx context.Context, ownerID uint, period string) (*models.AnalyticsReport, error)
}

type service struct {
	merchants     *repositories.MerchantRepository
	transactions  *repositories.TransactionRepository
	links         *repositories.PaymentLinkRepository
	payouts       *repositories.PayoutRepository
	subscriptions *repositories.SubscriptionRepository
	now           func() time.Time
}

func NewService(
	merchants *repositories.MerchantRepository,
	transactions *repositories.TransactionRepository,
	links *repositories.PaymentLinkRepository,
	payouts *repositories.PayoutRepository,
	subscriptions *repositories.SubscriptionRepository,
) Service {
	return &service{
		merchants:     merchants,
		transactions:  transactions,
		links:         links,
		payouts:       payouts,
		subscriptions: subscriptions,
		now:           time.Now,
	}
}

func (s *service) GetMerchantDashboard(ctx context.Context, ownerID uint) (*models.MerchantDashboardStats, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats := &models.MerchantDashboardStats{
		Merchant:         merchant,
		BalanceAvailable: merchant.BalanceAvailable,
		BalanceOnHold:    merchant.BalanceOnHold,
	}
	if stats.Subscription, err = s.subscriptions.GetByMerchant(ctx, merchant.ID); err != nil {
		return nil, err
	}
	if stats.TotalTransactions, err = s.transactions.Count(ctx, merchant.ID); err != nil {
		return nil, err
	}
	if stats.ActiveLinks, err = s.links.CountActive(ctx, merchant.ID, s.now()); err != nil {
		return nil, err
	}
	if stats.PendingPayouts, err = s.payouts.CountPending(ctx, merchant.ID); err != nil {
		return nil, err
	}
	if stats.RecentPayments, err = s.transactions.Recent(ctx, merchant.ID, recentLimit); err != nil {
		return nil, err
	}
	return stats, nil
}

type periodSpec struct {
	days int
	name string
}

var periods = map[string]periodSpec{
	"7d":   {7, "Last 7 days"},
	"30d":  {30, "Last 30 days"},
	"90d":  {90, "Last 90 days"},
	"year": {365, "Last year"},
}

func (s *service) GetAnalytics(ctx context.Context, ownerID uint, period string) (*models.AnalyticsReport, error) {
	merchant, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	spec, ok := periods[period]
	if !ok {
		period, spec = "30d", periods["30d"]
	}

	now := s.now()
	start := now.AddDate(0, 0, -spec.days)
	previousStart := start.AddDate(0, 0, -spec.days)

	txns, err := s.transactions.Between(ctx, merchant.ID, previousStart, now.Add(time.Second))
	if err != nil {
		return nil, err
	}
	report := aggregate(txns, now, start, previousStart, spec.days)
	report.Period = period
	report.PeriodName = spec.name
	return report, nil
}

// aggregate builds the report from every transaction created since previousStart.
func aggregate(txns []models.Transaction, now, start, previousStart time.Time, days int) *models.AnalyticsReport {
	r := &models.AnalyticsReport{
		From:             start,
		To:               now,
		TotalRevenue:     decimal.Zero,
		NetRevenue:       decimal.Zero,
		TotalFees:        decimal.Zero,
		AverageAmount:    decimal.Zero,
		TodayRevenue:     decimal.Zero,
		YesterdayRevenue: decimal.Zero,
	}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	daily := make([]models.DailyRevenue, 0, days+1)
	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		daily = append(daily, models.DailyRevenue{Date: d.Format("2006-01-02"), DayLabel: d.Format("Jan 02"), Revenue: decimal.Zero})
	}

	var (
		all             int64
		previousRevenue = decimal.Zero
		previousCount   int64
		byStatus        = map[models.TransactionStatus]*models.StatusBreakdown{}
		byLink          = map[uint]*models.TopLink{}
	)
	for i := range txns {
		t := &txns[i]
		if t.CreatedAt.Before(start) {
			if t.CreatedAt.After(previousStart) || t.CreatedAt.Equal(previousStart) {
				if t.Status == models.TransactionPaid {
					previousRevenue = previousRevenue.Add(t.Amount)
					previousCount++
				}
			}
			continue
		}

		all++
		sb, ok := byStatus[t.Status]
		if !ok {
			sb = &models.StatusBreakdown{Status: t.Status, TotalAmount: decimal.Zero}
			byStatus[t.Status] = sb
		}
		sb.Count++
		sb.TotalAmount = sb.TotalAmount.Add(t.Amount)

		if t.Status != models.TransactionPaid {
			continue
		}
		r.TransactionCount++
		r.TotalRevenue = r.TotalRevenue.Add(t.Amount)
		r.NetRevenue = r.NetRevenue.Add(t.NetAmount)
		r.TotalFees = r.TotalFees.Add(t.PlutuFee).Add(t.PlatformFee)

		if idx := int(t.CreatedAt.Sub(start) / (24 * time.Hour)); idx >= 0 && idx < len(daily) {
			daily[idx].Revenue = daily[idx].Revenue.Add(t.Amount)
			daily[idx].Count++
		}
		switch {
		case !t.CreatedAt.Before(todayStart):
			r.TodayRevenue = r.TodayRevenue.Add(t.Amount)
			r.TodayCount++
		case !t.CreatedAt.Before(yesterdayStart):
			r.YesterdayRevenue = r.YesterdayRevenue.Add(t.Amount)
		}

		if t.PaymentLinkID != nil {
			tl, ok := byLink[*t.PaymentLinkID]
			if !ok {
				tl = &models.TopLink{LinkID: *t.PaymentLinkID, Revenue: decimal.Zero}
				if t.PaymentLink != nil {
					tl.Title = t.PaymentLink.Title
					tl.Reference = t.PaymentLink.Reference
				}
				byLink[*t.PaymentLinkID] = tl
			}
			tl.Count++
			tl.Revenue = tl.Revenue.Add(t.Amount)
			if t.CreatedAt.After(tl.LastPaidAt) {
				tl.LastPaidAt = t.CreatedAt
			}
		}
	}

	r.Daily = daily
	if r.TransactionCount > 0 {
		r.AverageAmount = r.TotalRevenue.Div(decimal.NewFromInt(r.TransactionCount)).Round(2)
	}
	if previousRevenue.IsPositive() {
		change, _ := r.TotalRevenue.Sub(previousRevenue).Div(previousRevenue).Mul(decimal.NewFromInt(100)).Float64()
		r.RevenueChange = round1(change)
	}
	if previousCount > 0 {
		r.TransactionChange = round1(float64(r.TransactionCount-previousCount) / float64(previousCount) * 100)
	}
	if all > 0 {
		r.ConversionRate = round1(float64(r.TransactionCount) / float64(all) * 100)
	}

	r.StatusBreakdown = make([]models.StatusBreakdown, 0, len(byStatus))
	for _, sb := range byStatus {
		sb.Percentage = round1(float64(sb.Count) / float64(all) * 100)
		r.StatusBreakdown = append(r.StatusBreakdown, *sb)
	}
	sort.Slice(r.StatusBreakdown, func(i, j int) bool {
		a, b := r.StatusBreakdown[i], r.StatusBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Status < b.Status
	})

	r.TopLinks = make([]models.TopLink, 0, len(byLink))
	for _, tl := range byLink {
		r.TopLinks = append(r.TopLinks, *tl)
	}
	sort.Slice(r.TopLinks, func(i, j int) bool {
		if c := r.TopLinks[i].Revenue.Cmp(r.TopLinks[j].Revenue); c != 0 {
			return c > 0
		}
		return r.TopLinks[i].LinkID < r.TopLinks[j].LinkID
	})
	if len(r.TopLinks) > topLinksLimit {
		r.TopLinks = r.TopLinks[:topLinksLimit]
	}
	return r
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
