package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MerchantDashboardStats is the merchant landing summary.
type MerchantDashboardStats struct {
	Merchant          *Merchant             `json:"merchant"`
	Subscription      *MerchantSubscription `json:"subscription,omitempty"`
	BalanceAvailable  decimal.Decimal       `json:"balance_available"`
	BalanceOnHold     decimal.Decimal       `json:"balance_on_hold"`
	TotalTransactions int64                 `json:"total_transactions"`
	ActiveLinks       int64                 `json:"active_links"`
	PendingPayouts    int64                 `json:"pending_payouts"`
	RecentPayments    []Transaction         `json:"recent_transactions"`
}

type DailyRevenue struct {
	Date     string          `json:"date"`
	DayLabel string          `json:"day_label"`
	Revenue  decimal.Decimal `json:"revenue"`
	Count    int64           `json:"count"`
}

type StatusBreakdown struct {
	Status      TransactionStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Percentage  float64           `json:"percentage"`
}

type TopLink struct {
	LinkID     uint            `json:"link_id"`
	Title      string          `json:"title"`
	Reference  string          `json:"reference"`
	Count      int64           `json:"count"`
	Revenue    decimal.Decimal `json:"revenue"`
	LastPaidAt time.Time       `json:"last_paid_at"`
}

// AnalyticsReport aggregates paid activity over a period.
type AnalyticsReport struct {
	Period            string            `json:"period"`
	PeriodName        string            `json:"period_name"`
	From              time.Time         `json:"from"`
	To                time.Time         `json:"to"`
	TotalRevenue      decimal.Decimal   `json:"total_revenue"`
	NetRevenue        decimal.Decimal   `json:"net_revenue"`
	TotalFees         decimal.Decimal   `json:"total_fees"`
	TransactionCount  int64             `json:"transaction_count"`
	AverageAmount     decimal.Decimal   `json:"average_amount"`
	RevenueChange     float64           `json:"revenue_change_percent"`
	TransactionChange float64           `json:"transaction_change_percent"`
	ConversionRate    float64           `json:"conversion_rate"`
	TodayRevenue      decimal.Decimal   `json:"today_revenue"`
	TodayCount        int64             `json:"today_count"`
	YesterdayRevenue  decimal.Decimal   `json:"yesterday_revenue"`
	Daily             []DailyRevenue    `json:"daily"`
	StatusBreakdown   []StatusBreakdown `json:"status_breakdown"`
	TopLinks          []TopLink         `json:"top_links"`
}

// ClientDashboard is the messaging client landing summary.
type ClientDashboard struct {
	APIKey            string            `json:"api_key"`
	TotalMessages     int               `json:"total_messages"`
	UsedMessages      int               `json:"used_messages"`
	RemainingMessages int               `json:"remaining_messages"`
	RecentMessages    []WhatsAppMessage `json:"recent_messages"`
}
