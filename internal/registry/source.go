package registry

import (
	"context"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// FileSource supplies tracked accounts by re-reading the book file on every
// call, so serve mode picks up registry edits without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource over the given book path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Accounts loads the book and returns its accounts.
func (s *FileSource) Accounts(ctx context.Context) ([]domain.TrackedAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	book, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	return book.Accounts, nil
}
