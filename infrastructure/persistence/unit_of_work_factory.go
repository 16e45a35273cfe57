package persistence

import (
	"catalog/domain/shared"

	"go.uber.org/zap"
)

// UnitOfWorkFactory hands out a fresh unit of work per call, all sharing one
// database and save pipeline.
type UnitOfWorkFactory struct {
	db       Database
	pipeline *SavePipeline
	log      *zap.Logger
}

func NewUnitOfWorkFactory(db Database, log *zap.Logger, interceptors ...Interceptor) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db:       db,
		pipeline: NewSavePipeline(interceptors...),
		log:      log,
	}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.db, f.pipeline, f.log)
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
