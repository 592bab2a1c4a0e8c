package history

import (
	"context"
	"regexp"
	"testing"
	"time"

	"bibsync/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// setupSQLite opens an in-memory sqlite database.
func setupSQLite(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	return db
}

// TestRepository_RoundTrip tests migrating, writing and listing scans on sqlite.
func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupSQLite(t), zap.NewNop())
	require.NoError(t, repo.Migrate(ctx))

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []*ScanRecord{
		{Document: "a.bib", Status: StatusNoChanges, StartedAt: start},
		{Document: "b.bib", Status: StatusFailed, Error: "boom", StartedAt: start.Add(time.Minute)},
		{Document: "a.bib", Status: StatusChangesFound, Changes: 3, RecordsAdded: 1, StartedAt: start.Add(2 * time.Minute)},
	}
	for _, row := range rows {
		require.NoError(t, repo.Create(ctx, row))
		assert.NotEmpty(t, row.ID)
	}

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, rows[2].ID, all[0].ID)
	assert.Equal(t, rows[1].ID, all[1].ID)
	assert.Equal(t, rows[0].ID, all[2].ID)
	assert.Equal(t, "boom", all[1].Error)

	latest, err := repo.List(ctx, "a.bib", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, StatusChangesFound, latest[0].Status)
	assert.Equal(t, 3, latest[0].Changes)

	require.NoError(t, repo.MarkAccepted(ctx, rows[2].ID, 2))
	latest, err = repo.List(ctx, "a.bib", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, latest[0].Accepted)

	assert.ErrorIs(t, repo.MarkAccepted(ctx, "missing", 1), ErrNotFound)
}

// TestRepository_MigrateMissingColumns tests that an outdated table is reported
// when auto migration is off.
func TestRepository_MigrateMissingColumns(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, db.Exec("CREATE TABLE scan_records (id TEXT PRIMARY KEY, document TEXT)").Error)

	err := NewRepository(db, nil, WithAutoMigrate(false)).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan_records is missing columns: baseline, status")

	require.NoError(t, NewRepository(db, nil).Migrate(context.Background()))
}

// TestRepository_Disabled tests that a repository without a database is a no-op.
func TestRepository_Disabled(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(nil, nil)

	assert.False(t, repo.Enabled())
	assert.NoError(t, repo.Migrate(ctx))

	rec := &ScanRecord{Document: "a.bib"}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	rows, err := repo.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.NoError(t, repo.MarkAccepted(ctx, rec.ID, 1))
}

// TestRepository_SQL tests the statements sent to MySQL.
func TestRepository_SQL(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `scan_records`")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewRepository(db, nil).Create(ctx, &ScanRecord{Document: "a.bib", Status: StatusNoChanges})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Create failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `scan_records`")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := NewRepository(db, nil).Create(ctx, &ScanRecord{Document: "a.bib"})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("List failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `scan_records`")).WillReturnError(assert.AnError)

		_, err := NewRepository(db, nil).List(ctx, "a.bib", 5)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("MarkAccepted unknown id", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `scan_records` SET `accepted`=?")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := NewRepository(db, nil).MarkAccepted(ctx, "nope", 1)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
