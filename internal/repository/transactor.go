package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
)

// Transactor открывает транзакции для сервисов, не раскрывая им sqlx.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor создаёт экземпляр.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction выполняет fn в транзакции; вложенные вызовы присоединяются к внешней.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return common.InTransaction(ctx, t.db, fn)
}

// AfterCommit откладывает fn до успешного коммита текущей транзакции.
func (t *Transactor) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	common.AfterCommit(ctx, fn)
}
