package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/testutil"
)

func Test_LoginAttemptRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	base := mustParseTime("2024-01-01 19:00:00Z")

	record := func(t *testing.T, tx pgx.Tx, at time.Time, username *string, ip string) models.LoginAttempt {
		t.Helper()
		saved, err := (&LoginAttemptRepo{DB: tx}).Record(t.Context(), models.LoginAttempt{
			CreatedAt: at,
			Username:  username,
			IP:        ip,
		})
		require.NoError(t, err)
		return saved
	}

	username := func(v string) *string { return &v }

	t.Run("record keeps fields", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := record(t, tx, base, username("nkiryanov"), "203.0.113.5")

			require.NotZero(t, saved.ID)
			require.True(t, saved.CreatedAt.Equal(base))
			require.Equal(t, "nkiryanov", *saved.Username)
			require.Equal(t, "203.0.113.5", saved.IP)
		})
	})

	t.Run("record without username", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := record(t, tx, base, nil, "203.0.113.5")

			require.Nil(t, saved.Username)
		})
	})

	t.Run("count by username honors window boundary", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := LoginAttemptRepo{DB: tx}
			since := base.Add(-10 * time.Minute)

			record(t, tx, base, username("nkiryanov"), "203.0.113.5")
			record(t, tx, since.Add(time.Second), username("nkiryanov"), "203.0.113.5")
			record(t, tx, since, username("nkiryanov"), "203.0.113.5")       // exactly at boundary, excluded
			record(t, tx, base, username("someone-else"), "203.0.113.5")     // other username
			record(t, tx, base, nil, "203.0.113.5")                          // anonymous attempt

			count, err := repo.CountByUsername(t.Context(), "nkiryanov", since)

			require.NoError(t, err)
			require.Equal(t, 2, count)
		})
	})

	t.Run("count by ip spans usernames", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := LoginAttemptRepo{DB: tx}
			since := base.Add(-10 * time.Minute)

			record(t, tx, base, username("nkiryanov"), "203.0.113.5")
			record(t, tx, base, username("someone-else"), "203.0.113.5")
			record(t, tx, base, nil, "203.0.113.5")
			record(t, tx, base, username("nkiryanov"), "198.51.100.7") // other ip

			count, err := repo.CountByIP(t.Context(), "203.0.113.5", since)

			require.NoError(t, err)
			require.Equal(t, 3, count)
		})
	})

	t.Run("delete before reports removed rows", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := LoginAttemptRepo{DB: tx}
			cutoff := base.Add(-10 * time.Minute)

			record(t, tx, cutoff.Add(-time.Hour), username("nkiryanov"), "203.0.113.5")
			record(t, tx, cutoff, username("nkiryanov"), "203.0.113.5") // exactly at cutoff, removed
			record(t, tx, base, username("nkiryanov"), "203.0.113.5")

			removed, err := repo.DeleteBefore(t.Context(), cutoff)
			require.NoError(t, err)
			require.Equal(t, int64(2), removed)

			count, err := repo.CountByUsername(t.Context(), "nkiryanov", cutoff.Add(-2*time.Hour))
			require.NoError(t, err)
			require.Equal(t, 1, count)
		})
	})
}
