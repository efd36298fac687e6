package port

import "context"

// FileStorage keeps attachment and approval sheet objects under slash
// separated keys such as Reimbursement/Medical/RMEDHO2403151234/nota.pdf
type FileStorage interface {
	// Put stores content under key, replacing any previous object whole
	Put(ctx context.Context, key string, content []byte) error
	// Get returns ErrNotFound for a missing key
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete succeeds for a missing key
	Delete(ctx context.Context, key string) error
}
