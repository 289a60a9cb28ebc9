package auth

import (
	"context"
	"fmt"
	"time"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories"
	"sitex/internal/utils"
	"sitex/internal/validation"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service interface {
	Register(ctx context.Context, input models.CreateUserInput) (*Session, error)
	Login(ctx context.Context, input models.LoginInput) (*Session, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, userID uint) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// Session is the result of a successful sign-in.
type Session struct {
	User         *models.User      `json:"user"`
	Roles        []string          `json:"roles"`
	APIClient    *models.ApiClient `json:"api_client,omitempty"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

type service struct {
	db        *gorm.DB
	users     *repositories.UserRepository
	messaging *repositories.MessagingRepository
	tokens    *utils.TokenManager
}

func NewService(db *gorm.DB, users *repositories.UserRepository, messaging *repositories.MessagingRepository, tokens *utils.TokenManager) Service {
	return &service{
		db:        db,
		users:     users,
		messaging: messaging,
		tokens:    tokens,
	}
}

// Register creates a client account with an API key in one transaction.
func (s *service) Register(ctx context.Context, input models.CreateUserInput) (*Session, error) {
	v := validation.New()
	v.Struct(&input)
	v.Password("password", input.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	exists, err := s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		FullName:     input.FullName,
		Password:     string(hashed),
		Roles:        models.NewRoleSet(models.RoleClient),
		TokenVersion: 1,
	}
	var client *models.ApiClient
	err = repositories.ExecuteInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		name := input.FullName
		if name == "" {
			name = input.Username
		}
		client = &models.ApiClient{
			UserID:   &user.ID,
			Name:     name,
			Company:  input.Company,
			Email:    input.Email,
			APIKey:   apiKey,
			IsActive: true,
		}
		return s.messaging.WithTx(tx).CreateClient(ctx, client)
	})
	if err != nil {
		return nil, err
	}
	log.Infof("registered user %d (%s)", user.ID, user.Username)

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	session.APIClient = client
	return session, nil
}

func (s *service) Login(ctx context.Context, input models.LoginInput) (*Session, error) {
	v := validation.New()
	v.Struct(&input)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		log.Warnf("login failed for %q: %v", input.Username, err)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		log.Warnf("login failed: incorrect password for user %d", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.users.TouchLogin(ctx, user.ID, time.Now()); err != nil {
		log.Warnf("record login for user %d: %v", user.ID, err)
	}
	return s.issue(user)
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ParseToken(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated.WithMessage("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, apperrors.ErrUnauthenticated.WithMessage("token version mismatch")
	}
	return s.issue(user)
}

// Logout revokes every token issued so far.
func (s *service) Logout(ctx context.Context, userID uint) error {
	return s.users.IncrementTokenVersion(ctx, userID)
}

// Authenticate resolves an access token to the current stored user.
func (s *service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ParseToken(accessToken, models.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated.WithMessage("invalid token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, apperrors.ErrUnauthenticated.WithMessage("token revoked")
	}
	return user, nil
}

func (s *service) issue(user *models.User) (*Session, error) {
	access, refresh, err := s.tokens.GenerateTokens(models.ClaimsFor(user))
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &Session{
		User:         user,
		Roles:        user.Roles.Names(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
