package sagalog

import "context"

// Repository persists saga transitions. The log is append-only.
type Repository interface {
	Save(ctx context.Context, entry *SagaLog) error
}
