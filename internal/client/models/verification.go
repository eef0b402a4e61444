package models

import (
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// VerificationPathPrefix is where signed email verification links point.
const VerificationPathPrefix = "/email/verify/"

var ErrInvalidVerificationLink = errors.New("not an email verification link")

// EmailVerification holds the parts of a signed verification link:
// /email/verify/{id}/{hash}?expires=...&signature=...
type EmailVerification struct {
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	Expires   string `json:"expires"`
	Signature string `json:"signature"`
}

func (v EmailVerification) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.ID, validation.Required),
		validation.Field(&v.Hash, validation.Required),
		validation.Field(&v.Expires, validation.Required, is.Digit),
		validation.Field(&v.Signature, validation.Required),
	)
}

// ParseVerificationLink extracts the verification parts from link. The link
// may be absolute or just the path with its query.
func ParseVerificationLink(link string) (EmailVerification, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return EmailVerification{}, ErrInvalidVerificationLink
	}

	idx := strings.Index(u.Path, VerificationPathPrefix)
	if idx < 0 {
		return EmailVerification{}, ErrInvalidVerificationLink
	}
	parts := strings.Split(strings.Trim(u.Path[idx+len(VerificationPathPrefix):], "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return EmailVerification{}, ErrInvalidVerificationLink
	}

	q := u.Query()
	return EmailVerification{
		ID:        parts[0],
		Hash:      parts[1],
		Expires:   q.Get("expires"),
		Signature: q.Get("signature"),
	}, nil
}
