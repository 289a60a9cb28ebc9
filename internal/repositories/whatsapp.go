package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessagingRepository struct {
	db *gorm.DB
}

func NewMessagingRepository(db *gorm.DB) *MessagingRepository {
	return &MessagingRepository{db: db}
}

func (r *MessagingRepository) WithTx(tx *gorm.DB) *MessagingRepository {
	return &MessagingRepository{db: tx}
}

func (r *MessagingRepository) CreateClient(ctx context.Context, c *models.ApiClient) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(c).Error; err != nil {
		return fmt.Errorf("create api client: %w", err)
	}
	return nil
}

func (r *MessagingRepository) GetClientByUser(ctx context.Context, userID uint) (*models.ApiClient, error) {
	var c models.ApiClient
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, notFound(err, apperrors.ErrApiClientNotFound, "get api client")
	}
	return &c, nil
}

// GetClientByAPIKey returns an active client holding key.
func (r *MessagingRepository) GetClientByAPIKey(ctx context.Context, key string) (*models.ApiClient, error) {
	var c models.ApiClient
	err := r.db.WithContext(ctx).Where("api_key = ? AND is_active = ?", key, true).First(&c).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrApiClientNotFound, "get api client by key")
	}
	return &c, nil
}

func (r *MessagingRepository) ListActivePackages(ctx context.Context) ([]models.MessagePackage, error) {
	var pkgs []models.MessagePackage
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("price, id").Find(&pkgs).Error; err != nil {
		return nil, fmt.Errorf("list message packages: %w", err)
	}
	return pkgs, nil
}

// GetActivePackage resolves ref as a numeric id first, then as a plan code.
func (r *MessagingRepository) GetActivePackage(ctx context.Context, ref string) (*models.MessagePackage, error) {
	var p models.MessagePackage
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("plan_code = ?", ref)
	}
	if err := q.First(&p).Error; err != nil {
		return nil, notFound(err, apperrors.ErrMessagePackageNotFound, "get message package")
	}
	return &p, nil
}

func (r *MessagingRepository) CreatePackage(ctx context.Context, p *models.MessagePackage) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *MessagingRepository) PackageExists(ctx context.Context, planCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MessagePackage{}).Where("plan_code = ?", planCode).Count(&count).Error
	return count > 0, err
}

// GetBalance returns the client's balance, or a zero balance when none exists yet.
func (r *MessagingRepository) GetBalance(ctx context.Context, clientID uint) (*models.ClientMessageBalance, error) {
	var b models.ClientMessageBalance
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ClientMessageBalance{ClientID: clientID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message balance: %w", err)
	}
	return &b, nil
}

// AddMessages increments total_messages, creating the balance row if needed.
func (r *MessagingRepository) AddMessages(ctx context.Context, clientID uint, count int) error {
	b := models.ClientMessageBalance{ClientID: clientID, TotalMessages: count}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_messages": gorm.Expr("client_message_balances.total_messages + ?", count),
			"updated_at":     time.Now(),
		}),
	}).Create(&b).Error
	if err != nil {
		return fmt.Errorf("add messages: %w", err)
	}
	return nil
}

// ConsumeOne uses one message only when credit remains. It reports false otherwise.
func (r *MessagingRepository) ConsumeOne(ctx context.Context, clientID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ClientMessageBalance{}).
		Where("client_id = ? AND total_messages > used_messages", clientID).
		Updates(map[string]interface{}{
			"used_messages": gorm.Expr("used_messages + 1"),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume message: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *MessagingRepository) CreatePurchase(ctx context.Context, p *models.MessagePurchase) error {
	return r.db.WithContext(ctx).Omit("Package").Create(p).Error
}

func (r *MessagingRepository) CreateMessage(ctx context.Context, m *models.WhatsAppMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessagingRepository) CreateLog(ctx context.Context, l *models.WhatsAppLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// IncrementUsage bumps the client's sent counter for day.
func (r *MessagingRepository) IncrementUsage(ctx context.Context, clientID uint, day time.Time) error {
	u := models.ApiUsage{ClientID: clientID, Date: day, TotalMessagesSent: 1}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_messages_sent": gorm.Expr("api_usages.total_messages_sent + 1"),
		}),
	}).Create(&u).Error
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}

func (r *MessagingRepository) GetUsage(ctx context.Context, clientID uint, day time.Time) (*models.ApiUsage, error) {
	var u models.ApiUsage
	err := r.db.WithContext(ctx).Where("client_id = ? AND date = ?", clientID, day).First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}
	return &u, nil
}

func (r *MessagingRepository) RecentMessages(ctx context.Context, clientID uint, n int) ([]models.WhatsAppMessage, error) {
	var msgs []models.WhatsAppMessage
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at DESC, id DESC").Limit(n).Find(&msgs).Error
	return msgs, err
}
