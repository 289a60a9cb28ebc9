package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApiClient is the messaging identity of a client account.
type ApiClient struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	User      *User     `json:"-"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Company   string    `gorm:"size:150" json:"company"`
	Email     string    `gorm:"size:254" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	APIKey    string    `gorm:"column:api_key;size:64;uniqueIndex;not null" json:"api_key"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagePackage struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	MessageCount int             `gorm:"not null" json:"message_count"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description  string          `json:"description"`
	DurationDays int             `gorm:"not null;default:30" json:"duration_days"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	PlanCode     string          `gorm:"size:50;index" json:"plan_code"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ClientMessageBalance struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	ClientID      uint      `gorm:"uniqueIndex;not null" json:"client_id"`
	TotalMessages int       `gorm:"not null;default:0" json:"total_messages"`
	UsedMessages  int       `gorm:"not null;default:0" json:"used_messages"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (b *ClientMessageBalance) Remaining() int {
	return b.TotalMessages - b.UsedMessages
}

type MessagePurchase struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	ClientID      uint            `gorm:"index;not null" json:"client_id"`
	PackageID     uint            `gorm:"index;not null" json:"package_id"`
	Package       *MessagePackage `gorm:"constraint:OnDelete:RESTRICT" json:"package,omitempty"`
	MessagesAdded int             `gorm:"not null" json:"messages_added"`
	PricePaid     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_paid"`
	PurchasedAt   time.Time       `gorm:"autoCreateTime" json:"purchased_at"`
}

type MessageType string

const (
	MessageOTP      MessageType = "otp"
	MessageText     MessageType = "text"
	MessageTemplate MessageType = "template"
)

func (t MessageType) Valid() bool {
	return t == MessageOTP || t == MessageText || t == MessageTemplate
}

type MessageStatus string

const (
	MessageQueued    MessageStatus = "queued"
	MessageSent      MessageStatus = "sent"
	MessageFailed    MessageStatus = "failed"
	MessageDelivered MessageStatus = "delivered"
)

type WhatsAppMessage struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	ClientID          uint            `gorm:"index;not null" json:"client_id"`
	Phone             string          `gorm:"size:20;not null" json:"phone"`
	MessageType       MessageType     `gorm:"size:20;not null" json:"message_type"`
	Content           string          `json:"content"`
	ProviderMessageID string          `gorm:"size:150" json:"provider_message_id"`
	Status            MessageStatus   `gorm:"size:20;not null;default:'queued'" json:"status"`
	Cost              decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"cost"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
}

type WhatsAppLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ClientID   uint      `gorm:"index;not null" json:"client_id"`
	Phone      string    `gorm:"size:20;not null" json:"phone"`
	Message    string    `json:"message"`
	Status     string    `gorm:"size:20;not null" json:"status"`
	ProviderID *string   `gorm:"size:100" json:"provider_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ApiUsage struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	ClientID          uint      `gorm:"uniqueIndex:idx_usage_client_date;not null" json:"client_id"`
	Date              time.Time `gorm:"type:date;uniqueIndex:idx_usage_client_date;not null" json:"date"`
	TotalMessagesSent int       `gorm:"not null;default:0" json:"total_messages_sent"`
}

type SendMessageInput struct {
	Phone       string `json:"phone" form:"phone" validate:"required,max=20"`
	MessageType string `json:"message_type" form:"message_type"`
	Message     string `json:"message" form:"message"`
}

type CheckoutInput struct {
	Package string `json:"package" form:"package" validate:"required"`
}
