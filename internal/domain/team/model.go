package team

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rpggio/syncteam/internal/domain/patch"
	"github.com/rpggio/syncteam/internal/perm"
)

var (
	// ErrMemberNotFound indicates the member doesn't exist.
	ErrMemberNotFound = errors.New("team member not found")
	// ErrInvalidInput indicates invalid member input.
	ErrInvalidInput = errors.New("invalid team member input")
)

// Member is a person on the team. Members are backed by the profiles table.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      perm.Role `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// Patch is a partial member update.
type Patch struct {
	Name      *string
	Email     *string
	Role      *perm.Role
	Bio       *string
	AvatarURL *string
}

// Apply shallow-merges the patch and reports whether anything changed.
func (m *Member) Apply(pt Patch) bool {
	changed := patch.Assign(&m.Name, pt.Name)
	changed = patch.Assign(&m.Email, pt.Email) || changed
	changed = patch.Assign(&m.Role, pt.Role) || changed
	changed = patch.Assign(&m.Bio, pt.Bio) || changed
	changed = patch.Assign(&m.AvatarURL, pt.AvatarURL) || changed
	return changed
}

// Full returns a patch carrying every field of m.
func (m Member) Full() Patch {
	return Patch{Name: &m.Name, Email: &m.Email, Role: &m.Role, Bio: &m.Bio, AvatarURL: &m.AvatarURL}
}

// FromPatch builds a member with the given id from a patch.
func FromPatch(id string, pt Patch) Member {
	m := Member{ID: id}
	m.Apply(pt)
	return m
}

// Initials returns up to two initials for avatar placeholders.
func (m Member) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(m.Name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// Validate checks a complete member.
func Validate(m Member) error {
	return ValidatePatch(m.Full())
}

// ValidatePatch checks the fields present in a patch.
func ValidatePatch(pt Patch) error {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if pt.Email != nil {
		if _, err := mail.ParseAddress(*pt.Email); err != nil {
			return fmt.Errorf("%w: email %q", ErrInvalidInput, *pt.Email)
		}
	}
	if pt.Role != nil {
		if _, ok := perm.ParseRole(string(*pt.Role)); !ok {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *pt.Role)
		}
	}
	return nil
}
