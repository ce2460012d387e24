package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	client, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer client.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))

	db := &DB{Client: client}
	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateError(t *testing.T) {
	client, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer client.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	db := &DB{Client: client}
	err = db.Migrate(context.Background())
	assert.EqualError(t, err, "migrate: permission denied")
}

func TestSchemaCoversAllTables(t *testing.T) {
	for _, table := range []string{"users", "meetings", "registered", "pretest_results", "posttest_results", "meeting_attendance", "files"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.NotContains(t, schema, "UNIQUE (date, time)")
}

func TestNilHandles(t *testing.T) {
	var db *DB
	assert.False(t, db.Healthy(context.Background()))
	assert.NoError(t, db.Close())

	assert.Nil(t, NewRedis(""))
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}
