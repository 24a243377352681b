package unitofwork

import "context"

// RepositoryFactory hands out a fresh unit of work per request.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
