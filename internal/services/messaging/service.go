// Package messaging sells WhatsApp message credits to API clients and queues
// the messages they send against those credits.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/services/events"
	"sitex/internal/utils"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const recentMessages = 10

// CheckoutResult is the package bought and the balance after the purchase.
type CheckoutResult struct {
	Package *models.MessagePackage       `json:"package"`
	Balance *models.ClientMessageBalance `json:"balance"`
}

// SendResult mirrors what the send endpoint reports back.
type SendResult struct {
	Success           bool   `json:"success"`
	MessageID         uint   `json:"message_id"`
	RemainingMessages int    `json:"remaining_messages"`
	Content           string `json:"content"`
}

type Service interface {
	Packages(ctx context.Context) ([]models.MessagePackage, error)
	// Checkout adds the package's messages to the user's client balance and
	// records the purchase in one transaction.
	Checkout(ctx context.Context, userID uint, input models.CheckoutInput) (*CheckoutResult, error)
	Dashboard(ctx context.Context, userID uint) (*models.ClientDashboard, error)
	ClientForUser(ctx context.Context, userID uint) (*models.ApiClient, error)
	ClientForKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	// Send consumes one credit and queues the message. Delivery happens downstream.
	Send(ctx context.Context, client *models.ApiClient, input models.SendMessageInput) (*SendResult, error)
}

type service struct {
	db        *gorm.DB
	users     *repositories.UserRepository
	messaging *repositories.MessagingRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(db *gorm.DB, users *repositories.UserRepository, messaging *repositories.MessagingRepository, publisher events.Publisher) Service {
	return &service{
		db:        db,
		users:     users,
		messaging: messaging,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *service) Packages(ctx context.Context) ([]models.MessagePackage, error) {
	return s.messaging.ListActivePackages(ctx)
}

func (s *service) ClientForUser(ctx context.Context, userID uint) (*models.ApiClient, error) {
	return s.messaging.GetClientByUser(ctx, userID)
}

func (s *service) ClientForKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.ErrApiClientNotFound
	}
	return s.messaging.GetClientByAPIKey(ctx, apiKey)
}

// ensureClient returns the user's client, creating one with a fresh API key.
func (s *service) ensureClient(ctx context.Context, tx *gorm.DB, userID uint) (*models.ApiClient, error) {
	repo := s.messaging.WithTx(tx)
	client, err := repo.GetClientByUser(ctx, userID)
	if err == nil || !errors.Is(err, apperrors.ErrApiClientNotFound) {
		return client, err
	}

	user, err := s.users.WithTx(tx).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	key, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}
	client = &models.ApiClient{
		UserID:   &user.ID,
		Name:     firstNonEmpty(user.FullName, user.Username),
		Email:    user.Email,
		APIKey:   key,
		IsActive: true,
	}
	if err := repo.CreateClient(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *service) Checkout(ctx context.Context, userID uint, input models.CheckoutInput) (*CheckoutResult, error) {
	ref := strings.TrimSpace(input.Package)
	if ref == "" {
		return nil, apperrors.FieldErrors{"package": "No package selected."}
	}

	result := &CheckoutResult{}
	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.messaging.WithTx(tx)
		pkg, err := repo.GetActivePackage(ctx, ref)
		if err != nil {
			return err
		}
		client, err := s.ensureClient(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.users.WithTx(tx).GrantRole(ctx, userID, models.RoleClient); err != nil {
			return err
		}
		if err := repo.AddMessages(ctx, client.ID, pkg.MessageCount); err != nil {
			return err
		}
		err = repo.CreatePurchase(ctx, &models.MessagePurchase{
			ClientID:      client.ID,
			PackageID:     pkg.ID,
			MessagesAdded: pkg.MessageCount,
			PricePaid:     pkg.Price,
		})
		if err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}
		result.Package = pkg
		result.Balance, err = repo.GetBalance(ctx, client.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.users.Invalidate(ctx, userID)
	log.Infof("user %d bought %d messages (%s)", userID, result.Package.MessageCount, result.Package.Name)
	return result, nil
}

func (s *service) Dashboard(ctx context.Context, userID uint) (*models.ClientDashboard, error) {
	client, err := s.messaging.GetClientByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.messaging.GetBalance(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	recent, err := s.messaging.RecentMessages(ctx, client.ID, recentMessages)
	if err != nil {
		return nil, err
	}
	return &models.ClientDashboard{
		APIKey:            client.APIKey,
		TotalMessages:     balance.TotalMessages,
		UsedMessages:      balance.UsedMessages,
		RemainingMessages: balance.Remaining(),
		RecentMessages:    recent,
	}, nil
}

func (s *service) Send(ctx context.Context, client *models.ApiClient, input models.SendMessageInput) (*SendResult, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, apperrors.ErrPhoneRequired
	}
	msgType := models.MessageType(strings.TrimSpace(input.MessageType))
	if msgType == "" {
		msgType = models.MessageOTP
	}
	if !msgType.Valid() {
		return nil, apperrors.FieldErrors{"message_type": "must be one of: otp, text, template"}
	}

	content := input.Message
	if msgType == models.MessageOTP {
		code, err := utils.GenerateOTP()
		if err != nil {
			return nil, fmt.Errorf("generate otp: %w", err)
		}
		content = "Your OTP is " + code
	}

	now := s.now()
	msg := &models.WhatsAppMessage{
		ClientID:    client.ID,
		Phone:       phone,
		MessageType: msgType,
		Content:     content,
		Status:      models.MessageQueued,
	}
	var remaining int
	err := repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.messaging.WithTx(tx)
		ok, err := repo.ConsumeOne(ctx, client.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInsufficientMessages
		}
		if err := repo.CreateMessage(ctx, msg); err != nil {
			return fmt.Errorf("record message: %w", err)
		}
		if err := repo.CreateLog(ctx, &models.WhatsAppLog{
			ClientID: client.ID,
			Phone:    phone,
			Message:  content,
			Status:   string(models.MessageQueued),
		}); err != nil {
			return fmt.Errorf("record whatsapp log: %w", err)
		}
		if err := repo.IncrementUsage(ctx, client.ID, UsageDay(now)); err != nil {
			return err
		}
		balance, err := repo.GetBalance(ctx, client.ID)
		if err != nil {
			return err
		}
		remaining = balance.Remaining()
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.PublishAfterCommit(ctx, s.publisher, events.TopicWhatsAppOutbound, strconv.FormatUint(uint64(msg.ID), 10), events.WhatsAppOutbound{
		MessageID:   msg.ID,
		ClientID:    client.ID,
		Phone:       phone,
		MessageType: string(msgType),
		Content:     content,
		QueuedAt:    now,
	})
	return &SendResult{Success: true, MessageID: msg.ID, RemainingMessages: remaining, Content: content}, nil
}

// UsageDay is the UTC calendar day usage is counted against.
func UsageDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
