package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_TokenAllowlistRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Allow-list rows reference users, so create one per test
	createUser := func(t *testing.T, tx pgx.Tx) models.User {
		t.Helper()
		user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "nkiryanov", "hashed-pwd")
		require.NoError(t, err)
		return user
	}

	t.Run("save and exists", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			repo := TokenAllowlistRepo{DB: tx}
			entry := models.AllowlistEntry{
				TokenID:  uuid.New(),
				UserID:   user.ID,
				IssuedAt: mustParseTime("2024-01-01 19:00:01Z"),
			}

			err := repo.Save(t.Context(), entry)
			require.NoError(t, err)

			exists, err := repo.Exists(t.Context(), entry.TokenID)
			require.NoError(t, err)
			require.True(t, exists)
		})
	})

	t.Run("exists false for unknown id", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenAllowlistRepo{DB: tx}

			exists, err := repo.Exists(t.Context(), uuid.New())

			require.NoError(t, err)
			require.False(t, exists)
		})
	})

	t.Run("duplicate token id refused", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			repo := TokenAllowlistRepo{DB: tx}
			entry := models.AllowlistEntry{
				TokenID:  uuid.New(),
				UserID:   user.ID,
				IssuedAt: mustParseTime("2024-01-01 19:00:01Z"),
			}

			require.NoError(t, repo.Save(t.Context(), entry))
			require.Error(t, repo.Save(t.Context(), entry), "token ids must be globally unique")
		})
	})

	t.Run("delete reports presence", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			repo := TokenAllowlistRepo{DB: tx}
			entry := models.AllowlistEntry{
				TokenID:  uuid.New(),
				UserID:   user.ID,
				IssuedAt: mustParseTime("2024-01-01 19:00:01Z"),
			}
			require.NoError(t, repo.Save(t.Context(), entry))

			deleted, err := repo.Delete(t.Context(), entry.TokenID)
			require.NoError(t, err)
			require.True(t, deleted)

			exists, err := repo.Exists(t.Context(), entry.TokenID)
			require.NoError(t, err)
			require.False(t, exists)

			// Second delete is a no-op, not an error
			deleted, err = repo.Delete(t.Context(), entry.TokenID)
			require.NoError(t, err)
			require.False(t, deleted)
		})
	})
}
