// Package registry stores the list of tracked accounts in a JSON file.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// ErrNotFound indicates that no tracked account matched the identifier.
var ErrNotFound = errors.New("account not found")

// Book is the persistent registry of tracked accounts. Display names are
// unique across the whole book.
type Book struct {
	Accounts []domain.TrackedAccount `json:"accounts"`

	path string
}

// DefaultPath returns the standard book location, ~/.gringotts/accounts.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".gringotts", "accounts.json"), nil
}

// Load reads the book from path. A missing file yields an empty book.
func Load(path string) (*Book, error) {
	book := &Book{path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return book, nil
		}
		return nil, fmt.Errorf("reading account book: %w", err)
	}

	if err := json.Unmarshal(content, book); err != nil {
		return nil, fmt.Errorf("parsing account book: %w", err)
	}

	for i := range book.Accounts {
		a := &book.Accounts[i]
		a.Organization = strings.TrimSpace(a.Organization)
		a.Name = strings.TrimSpace(a.Name)
		a.Identifier = strings.TrimSpace(a.Identifier)
	}

	return book, nil
}

// Save writes the book back to its path, creating parent directories as needed.
func (b *Book) Save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	content, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing account book: %w", err)
	}

	if err := os.WriteFile(b.path, content, 0o600); err != nil {
		return fmt.Errorf("writing account book: %w", err)
	}
	return nil
}

// Add registers a new tracked account. The kind string may be empty for
// wallet addresses, in which case it is detected from the address shape.
func (b *Book) Add(organization, name, identifier, kind string) (domain.TrackedAccount, error) {
	organization = strings.TrimSpace(organization)
	name = strings.TrimSpace(name)
	identifier = strings.TrimSpace(identifier)

	if name == "" {
		return domain.TrackedAccount{}, errors.New("account name must not be empty")
	}
	if b.hasName(name) {
		return domain.TrackedAccount{}, fmt.Errorf("account with name %q already exists", name)
	}

	var k domain.ProviderKind
	if kind == "" {
		k = domain.DetectKind(identifier)
	} else {
		parsed, err := domain.ParseProviderKind(kind)
		if err != nil {
			return domain.TrackedAccount{}, err
		}
		k = parsed
	}

	acc := domain.TrackedAccount{
		Organization: organization,
		Name:         name,
		Kind:         k,
		Identifier:   identifier,
	}
	b.Accounts = append(b.Accounts, acc)
	return acc, nil
}

// Remove drops the account whose name or identifier matches. Returns
// ErrNotFound if nothing matched.
func (b *Book) Remove(identifier string) error {
	before := len(b.Accounts)
	b.Accounts = lo.Filter(b.Accounts, func(a domain.TrackedAccount, _ int) bool {
		return a.Name != identifier && a.Identifier != identifier
	})
	if len(b.Accounts) == before {
		return fmt.Errorf("%w: %q", ErrNotFound, identifier)
	}
	return nil
}

// FindByName returns the account with the given display name.
func (b *Book) FindByName(name string) (domain.TrackedAccount, error) {
	acc, ok := lo.Find(b.Accounts, func(a domain.TrackedAccount) bool {
		return a.Name == name
	})
	if !ok {
		return domain.TrackedAccount{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return acc, nil
}

// ListByOrganization returns accounts whose organization label contains the
// filter (case-insensitive). An empty filter returns everything.
func (b *Book) ListByOrganization(filter string) []domain.TrackedAccount {
	if filter == "" {
		return b.Accounts
	}
	needle := strings.ToLower(filter)
	return lo.Filter(b.Accounts, func(a domain.TrackedAccount, _ int) bool {
		return strings.Contains(strings.ToLower(a.Organization), needle)
	})
}

func (b *Book) hasName(name string) bool {
	return lo.ContainsBy(b.Accounts, func(a domain.TrackedAccount) bool {
		return a.Name == name
	})
}
