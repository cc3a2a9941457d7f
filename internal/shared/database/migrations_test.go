package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockQuery   = regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")
	existsQuery = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")
	recordQuery = regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")
)

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRunMigrationsAppliesPendingFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_second.sql", "CREATE TABLE b (id INT);")
	writeMigration(t, dir, "001_first.sql", "CREATE TABLE a (id INT);")
	writeMigration(t, dir, "README.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755))

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(migrationLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQuery).WithArgs("001_first.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(migrationLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQuery).WithArgs("002_second.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT);")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordQuery).WithArgs("002_second.sql").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	db := &DB{sqlDB}
	applied, err := db.RunMigrations(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_broken.sql", "CREATE TABLE;")

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQuery).WithArgs("001_broken.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE;")).WillReturnError(os.ErrInvalid)
	mock.ExpectRollback()

	db := &DB{sqlDB}
	applied, err := db.RunMigrations(context.Background(), dir)
	require.ErrorContains(t, err, "001_broken.sql")
	assert.Zero(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsMissingDirectory(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	db := &DB{sqlDB}
	_, err = db.RunMigrations(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "failed to list migrations")
}

func TestPingWithRetry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(os.ErrDeadlineExceeded)
	mock.ExpectPing()
	require.NoError(t, pingWithRetry(context.Background(), sqlDB, 3, time.Millisecond, logger))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPingWithRetryGivesUp(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(os.ErrDeadlineExceeded)
	mock.ExpectPing().WillReturnError(os.ErrDeadlineExceeded)
	err = pingWithRetry(context.Background(), sqlDB, 2, time.Millisecond, logger)
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
