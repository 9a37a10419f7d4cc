package domain

import "strings"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type Profile struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	Name     string `db:"name" json:"name"`
	Hash     string `db:"password_hash" json:"-"`
	Role     string `db:"role" json:"role"`
	Phone    string `db:"phone" json:"phone"`
	Address  string `db:"address" json:"address"`
	City     string `db:"city" json:"city"`
	State    string `db:"state" json:"state"`
	ZipCode  string `db:"zip_code" json:"zip_code"`
	Created  string `db:"created_at" json:"created_at"`
	Modified string `db:"updated_at" json:"updated_at,omitempty"`
}

// IsAdmin accepts either the role column or the configured admin email.
func (p *Profile) IsAdmin(adminEmail string) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	return adminEmail != "" && strings.EqualFold(strings.TrimSpace(p.Email), strings.TrimSpace(adminEmail))
}
