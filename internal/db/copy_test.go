package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "facilities", []string{"id", "name"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"facilities"}, []string{"id", "name"}).WillReturnResult(3)

	rows := [][]any{{"f1", "Victoria Hospital"}, {"f2", "KR Hospital"}, {"f3", "PHC Hebbal"}}
	n, err := CopyFrom(context.Background(), mock, "facilities", []string{"id", "name"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"facilities"}, []string{"id", "name"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"f1", "Victoria Hospital"}}
	_, err = CopyFrom(context.Background(), mock, "facilities", []string{"id", "name"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO facilities")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_EmptyRows(t *testing.T) {
	n, err := CopyFromSchema(context.TODO(), nil, "access", "roads", []string{"id"}, [][]any{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFromSchema_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"access", "roads"}, []string{"id", "category"}).WillReturnResult(2)

	rows := [][]any{{"r1", "primary"}, {"r2", "secondary"}}
	n, err := CopyFromSchema(context.Background(), mock, "access", "roads", []string{"id", "category"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
