package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewapi/internal/auth"
)

func TestBusinessPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBusinessPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM businesses WHERE id = \\$1\\)").
		WithArgs("biz-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(ctx, "biz-1")
	assert.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT id, name, created_at FROM businesses WHERE id = \\$1").
		WithArgs("biz-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("biz-1", "Casa Andina", time.Now()))

	b, err := repo.FindByID(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "Casa Andina", b.Name)

	mock.ExpectQuery("SELECT id, name, created_at FROM businesses").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, created_at FROM users WHERE id = \\$1").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).AddRow("u1", "Ana", "ana@example.com", time.Now()))

	u, err := NewUserPostgres(db).FindByID(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewIdentityPostgres(db)
	ctx := context.Background()
	p := &auth.Principal{ID: "u1"}

	t.Run("has role", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS (.+) FROM user_roles ur JOIN roles ro").
			WithArgs("u1", "admin").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		ok, err := repo.HasRole(ctx, p, "admin")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("administers", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS (.+) FROM business_admins").
			WithArgs("biz-1", "u1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		ok, err := repo.Administers(ctx, p, "biz-1")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("anonymous short-circuits", func(t *testing.T) {
		ok, err := repo.HasRole(ctx, nil, "admin")
		assert.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Administers(ctx, nil, "biz-1")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
