// Package auth resolves bearer tokens to principals and checks the admin role.
//
// Tokens have the form "<userID>.<secret>". The token table comes from
// configuration as comma separated "userID:ROLE:bcryptHash" entries, so no
// secret is ever stored in plain text.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"textscrub/internal/model"
)

var (
	ErrUnauthenticated = errors.New("missing or invalid credentials")
	ErrForbidden       = errors.New("insufficient role")
)

type entry struct {
	role string
	hash []byte
}

// Authenticator checks bearer tokens against a fixed table.
type Authenticator struct {
	entries   map[string]entry
	adminRole string
}

// New parses the token table. An empty table is valid and rejects every token.
func New(tokens, adminRole string) (*Authenticator, error) {
	a := &Authenticator{entries: make(map[string]entry), adminRole: adminRole}
	for _, raw := range strings.Split(tokens, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("malformed token entry %q", redact(raw))
		}
		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("token entry for %s: %w", parts[0], err)
		}
		a.entries[parts[0]] = entry{role: parts[1], hash: []byte(parts[2])}
	}
	return a, nil
}

// AdminRole is the role required by Authorize.
func (a *Authenticator) AdminRole() string {
	return a.adminRole
}

// Authenticate resolves an Authorization header value.
func (a *Authenticator) Authenticate(header string) (model.Principal, error) {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok {
		return model.Principal{}, ErrUnauthenticated
	}
	userID, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || userID == "" || secret == "" {
		return model.Principal{}, ErrUnauthenticated
	}
	e, ok := a.entries[userID]
	if !ok {
		return model.Principal{}, ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword(e.hash, []byte(secret)); err != nil {
		return model.Principal{}, ErrUnauthenticated
	}
	return model.Principal{UserID: userID, Role: e.role}, nil
}

// Authorize fails with ErrForbidden unless p holds the admin role.
func (a *Authenticator) Authorize(p model.Principal) error {
	if p.Role != a.adminRole {
		return ErrForbidden
	}
	return nil
}

func redact(entry string) string {
	if i := strings.LastIndex(entry, ":"); i >= 0 {
		return entry[:i+1] + "***"
	}
	return "***"
}
