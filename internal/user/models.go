// Package user provides account management: OTP-verified registration,
// password login and profile maintenance.
package user

import "time"

// Role controls what a user may do. Administrators triage incidents;
// citizens report them.
type Role string

// Known roles.
const (
	RoleCitizen Role = "CITIZEN"
	RoleAdmin   Role = "ADMIN"
)

// User is a registered account with its profile and postal address.
type User struct {
	ID            int64  `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`

	AddressHouse   string `json:"address_house"`
	AddressStreet  string `json:"address_street"`
	AddressCity    string `json:"address_city"`
	AddressState   string `json:"address_state"`
	AddressPincode string `json:"address_pincode"`

	// PasswordHash is the bcrypt hash, never serialized.
	PasswordHash string `json:"-"`

	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileUpdate carries the editable profile fields. All are required; the
// email and role are immutable once registered.
type ProfileUpdate struct {
	Name           string `json:"name"`
	ContactNumber  string `json:"contact_number"`
	AddressHouse   string `json:"address_house"`
	AddressStreet  string `json:"address_street"`
	AddressCity    string `json:"address_city"`
	AddressState   string `json:"address_state"`
	AddressPincode string `json:"address_pincode"`
}

// Complete reports whether every editable field is present.
func (p ProfileUpdate) Complete() bool {
	return p.Name != "" && p.ContactNumber != "" &&
		p.AddressHouse != "" && p.AddressStreet != "" && p.AddressCity != "" &&
		p.AddressState != "" && p.AddressPincode != ""
}
