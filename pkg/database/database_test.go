package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_DeclaresConstraintsUsedByRepositories(t *testing.T) {
	for _, name := range []string{"accounts_email_key", "invoices_account_number_key"} {
		assert.Contains(t, Schema(), name)
	}
	for _, table := range []string{"accounts", "customers", "invoices", "audit_logs"} {
		assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS accounts")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), mock)
	assert.ErrorContains(t, err, "permission denied")
}
