package unitofwork

import (
	"context"

	"heritage-archive-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ArchiveRepository() contract.ArchiveRepository
}
