package migration

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sentinelQuery = "SELECT to_regclass('public.reviews') IS NOT NULL"

func TestEnsureMigrated_Skip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var logs bytes.Buffer
	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err = EnsureMigrated(context.Background(), db, zerolog.New(&logs), "db.local")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"event":"db_migration_skip"`)
	assert.Contains(t, logs.String(), `"db_host":"db.local"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_RunsAllSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	for _, step := range steps {
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	var logs bytes.Buffer
	err = EnsureMigrated(context.Background(), db, zerolog.New(&logs), "db.local")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"event":"db_migration_success"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_StepFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(steps[1].SQL)).WillReturnError(errors.New("permission denied"))

	var logs bytes.Buffer
	err = EnsureMigrated(context.Background(), db, zerolog.New(&logs), "db.local")
	assert.EqualError(t, err, "migration step create_table_users failed: permission denied")
	assert.Contains(t, logs.String(), `"migration_step":"create_table_users"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_SentinelError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).WillReturnError(errors.New("conn reset"))

	err = EnsureMigrated(context.Background(), db, zerolog.Nop(), "db.local")
	assert.EqualError(t, err, "failed to check sentinel table: conn reset")
}

func TestSteps_ReviewsSchema(t *testing.T) {
	var reviews string
	names := map[string]bool{}
	for _, s := range steps {
		assert.False(t, names[s.Name], "duplicate step %s", s.Name)
		names[s.Name] = true
		if s.Name == "create_table_reviews" {
			reviews = s.SQL
		}
	}
	require.NotEmpty(t, reviews)
	assert.Contains(t, reviews, "CHECK (rating BETWEEN 1 AND 5)")
	assert.Contains(t, reviews, "DEFAULT 'pending'")
	assert.Contains(t, reviews, "reviews_business_id_fkey")
	assert.Contains(t, reviews, "ON DELETE SET NULL")
}
