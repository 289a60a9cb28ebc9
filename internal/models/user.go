package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is a single account capability.
type Role uint8

const (
	RoleAdmin Role = 1 << iota
	RoleClient
	RoleMerchant
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleAdmin, "admin"},
	{RoleClient, "client"},
	{RoleMerchant, "merchant"},
}

// RoleSet is the set of capabilities granted to an account.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	return s&RoleSet(r) != 0
}

func (s RoleSet) With(r Role) RoleSet {
	return s | RoleSet(r)
}

func (s RoleSet) Without(r Role) RoleSet {
	return s &^ RoleSet(r)
}

// Names lists the granted roles in a stable order.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(roleNames))
	for _, rn := range roleNames {
		if s.Has(rn.role) {
			names = append(names, rn.name)
		}
	}
	return names
}

func (s RoleSet) String() string {
	return strings.Join(s.Names(), ",")
}

type User struct {
	gorm.Model
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"size:254" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"size:150" json:"full_name"`
	Roles        RoleSet    `gorm:"not null;default:0" json:"-"`
	TokenVersion int        `gorm:"not null;default:1" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) IsAdmin() bool    { return u.Roles.Has(RoleAdmin) }
func (u *User) IsMerchant() bool { return u.Roles.Has(RoleMerchant) }
func (u *User) IsClient() bool   { return u.Roles.Has(RoleClient) }

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required"`
	Email    string `json:"email" form:"email" validate:"omitempty,email,max=254"`
	FullName string `json:"full_name" form:"full_name" validate:"max=150"`
	Company  string `json:"company" form:"company" validate:"max=150"`
}

type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}
