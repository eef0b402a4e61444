package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// MinPasswordLength matches the login form rule of the dashboard.
const MinPasswordLength = 6

// DefaultPhoneRegion is used to parse mobile numbers without a country prefix.
var DefaultPhoneRegion = "US"

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before they are sent.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("Please input your email!"), is.Email.Error("Please enter a valid email!")),
		validation.Field(&r.Password, validation.Required.Error("Please input your password!"),
			validation.Length(MinPasswordLength, 0).Error("Password must be at least 6 characters!")),
	)
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Name                 string `json:"name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	MobileNumber         string `json:"mobile_number"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 Role   `json:"role,omitempty"`
	Country              string `json:"country,omitempty"`
	Address              string `json:"address,omitempty"`
	City                 string `json:"city,omitempty"`
	PostalCode           string `json:"postal_code,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.MobileNumber, validation.Required, validation.By(validPhone)),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 100)),
		validation.Field(&r.PasswordConfirmation, validation.Required, validation.By(stringEquals(r.Password))),
		validation.Field(&r.Role, validation.In(RoleAdmin, RoleUser)),
	)
}

// ProfileUpdate is the partial body of PATCH /api/profile. Nil fields are
// left unchanged by the server.
type ProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	MobileNumber *string `json:"mobile_number,omitempty"`
	Country      *string `json:"country,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.LastName == nil && p.Email == nil && p.MobileNumber == nil &&
		p.Country == nil && p.Address == nil && p.City == nil && p.PostalCode == nil
}

func (p ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.LastName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&p.MobileNumber, validation.NilOrNotEmpty, validation.By(validPhone)),
	)
}

func validPhone(value interface{}) error {
	v, _ := validation.Indirect(value)
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

func stringEquals(want string) validation.RuleFunc {
	return func(value interface{}) error {
		v, _ := validation.Indirect(value)
		s, _ := v.(string)
		if s != want {
			return errors.New("does not match password")
		}
		return nil
	}
}

// FieldErrors flattens an ozzo validation result into field -> messages,
// keyed by JSON field names. Non-validation errors yield nil.
func FieldErrors(err error) map[string][]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for field, e := range verrs {
		if e == nil {
			continue
		}
		out[field] = []string{e.Error()}
	}
	return out
}
