package postgres

import (
	"context"
	"fmt"

	"github.com/nkiryanov/linkstash/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) TokenAllowlist() repository.TokenAllowlistRepo {
	return &TokenAllowlistRepo{DB: s.db}
}

func (s *Storage) LoginAttempt() repository.LoginAttemptRepo {
	return &LoginAttemptRepo{DB: s.db}
}

func (s *Storage) Link() repository.LinkRepo {
	return &LinkRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
