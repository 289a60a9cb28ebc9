package middleware

import (
	"context"

	apperrors "sitex/internal/errors"
	"sitex/internal/models"
	"sitex/internal/repositories/cache"
	"sitex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// OnboardingPath is where merchants without finished onboarding are sent.
const OnboardingPath = "/merchant/onboarding/"

// Access is the class of caller a route admits.
type Access uint8

const (
	AccessUnset Access = iota
	AccessPublic
	AccessAuthenticated
	AccessClient
	AccessMerchant
	AccessAdmin
)

var accessNames = map[Access]string{
	AccessUnset:         "unset",
	AccessPublic:        "public",
	AccessAuthenticated: "authenticated",
	AccessClient:        "client",
	AccessMerchant:      "merchant",
	AccessAdmin:         "admin",
}

func (a Access) String() string {
	if name, ok := accessNames[a]; ok {
		return name
	}
	return "unknown"
}

// Subject is what the gate knows about the caller.
type Subject struct {
	User *models.User

	// Merchant is the owner's merchant snapshot, nil when none exists.
	Merchant *cache.MerchantAccess

	// APIKey is set when the request carries an API key header.
	APIKey bool
}

type Outcome uint8

const (
	Allow Outcome = iota
	Deny
	Redirect
)

// Decision is the gate's verdict for one request.
type Decision struct {
	Outcome  Outcome
	Err      *apperrors.DomainError
	Location string
}

func allow() Decision { return Decision{Outcome: Allow} }

func deny(err *apperrors.DomainError) Decision {
	return Decision{Outcome: Deny, Err: err}
}

func redirect(location string) Decision {
	return Decision{Outcome: Redirect, Location: location}
}

// Evaluate decides whether subject may use a route of the given class.
func Evaluate(access Access, s Subject) Decision {
	if access == AccessPublic {
		return allow()
	}
	if access == AccessClient && s.APIKey {
		return allow()
	}
	if s.User == nil {
		return deny(apperrors.ErrUnauthenticated)
	}
	if s.User.IsAdmin() {
		return allow()
	}

	switch access {
	case AccessAuthenticated:
		return allow()
	case AccessClient:
		if s.User.IsClient() {
			return allow()
		}
		return deny(apperrors.ErrClientRequired)
	case AccessMerchant:
		if !s.User.IsMerchant() {
			return deny(apperrors.ErrMerchantRequired)
		}
		if s.Merchant == nil {
			return redirect(OnboardingPath)
		}
		if s.Merchant.OnboardingStep != models.StepCompleted {
			return redirect(OnboardingPath + "?step=" + string(s.Merchant.OnboardingStep))
		}
		return allow()
	default:
		return deny(apperrors.ErrAdminRequired)
	}
}

// needsMerchant reports whether Evaluate will look at the merchant snapshot.
func needsMerchant(access Access, user *models.User) bool {
	return access == AccessMerchant && user != nil && !user.IsAdmin() && user.IsMerchant()
}

// MerchantAccessor loads the gate snapshot for an owner.
type MerchantAccessor interface {
	Access(ctx context.Context, ownerID uint) (*cache.MerchantAccess, error)
}

// Gate enforces route access classes.
type Gate struct {
	merchants MerchantAccessor
}

func NewGate(merchants MerchantAccessor) *Gate {
	return &Gate{merchants: merchants}
}

// Require returns the handler enforcing access. It panics on AccessUnset so a
// route cannot be registered without a class.
func (g *Gate) Require(access Access) fiber.Handler {
	if _, ok := accessNames[access]; !ok || access == AccessUnset {
		panic("middleware: route registered without an access class")
	}
	return func(c *fiber.Ctx) error {
		s := Subject{
			User:   CurrentUser(c),
			APIKey: c.Get(APIKeyHeader) != "",
		}
		if needsMerchant(access, s.User) {
			snapshot, err := g.merchants.Access(c.UserContext(), s.User.ID)
			if err != nil {
				return response.FromError(c, err)
			}
			s.Merchant = snapshot
		}

		d := Evaluate(access, s)
		switch d.Outcome {
		case Allow:
			return c.Next()
		case Redirect:
			return c.Redirect(d.Location, fiber.StatusFound)
		default:
			return response.FromError(c, d.Err)
		}
	}
}
