package client

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rpggio/syncteam/internal/domain/patch"
)

var (
	// ErrClientNotFound indicates the client doesn't exist.
	ErrClientNotFound = errors.New("client not found")
	// ErrInvalidInput indicates invalid client input.
	ErrInvalidInput = errors.New("invalid client input")
)

// Client is a customer that projects are delivered for
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Patch is a partial client update.
type Patch struct {
	Name    *string
	Company *string
	Email   *string
	Phone   *string
}

// Apply shallow-merges the patch and reports whether anything changed.
func (c *Client) Apply(pt Patch) bool {
	changed := patch.Assign(&c.Name, pt.Name)
	changed = patch.Assign(&c.Company, pt.Company) || changed
	changed = patch.Assign(&c.Email, pt.Email) || changed
	changed = patch.Assign(&c.Phone, pt.Phone) || changed
	return changed
}

// Full returns a patch carrying every field of c.
func (c Client) Full() Patch {
	return Patch{Name: &c.Name, Company: &c.Company, Email: &c.Email, Phone: &c.Phone}
}

// FromPatch builds a client with the given id from a patch.
func FromPatch(id string, pt Patch) Client {
	c := Client{ID: id}
	c.Apply(pt)
	return c
}

// Validate checks a complete client.
func Validate(c Client) error {
	return ValidatePatch(c.Full())
}

// ValidatePatch checks the fields present in a patch.
func ValidatePatch(pt Patch) error {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if pt.Email != nil && *pt.Email != "" {
		if _, err := mail.ParseAddress(*pt.Email); err != nil {
			return fmt.Errorf("%w: email %q", ErrInvalidInput, *pt.Email)
		}
	}
	return nil
}
