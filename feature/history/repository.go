package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bibsync/core/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultLimit is the number of rows List returns when no limit is given.
const DefaultLimit = 20

// ErrNotFound is returned when a scan id does not exist.
var ErrNotFound = errors.New("scan record not found")

// Repository stores scan history. A repository without a database accepts
// writes and discards them, so history stays optional.
type Repository struct {
	db          *gorm.DB
	logger      *zap.Logger
	autoMigrate bool
}

// Option configures a Repository.
type Option func(*Repository)

// WithAutoMigrate controls whether Migrate alters the schema.
func WithAutoMigrate(enabled bool) Option {
	return func(r *Repository) { r.autoMigrate = enabled }
}

// NewRepository creates a repository. db may be nil.
func NewRepository(db *gorm.DB, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{db: db, logger: logger, autoMigrate: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether a database is attached.
func (r *Repository) Enabled() bool {
	return r != nil && r.db != nil
}

// Migrate prepares the history table and checks that it has every expected column.
func (r *Repository) Migrate(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	db := r.db.WithContext(ctx)

	if r.autoMigrate {
		if err := db.AutoMigrate(&ScanRecord{}); err != nil {
			return fmt.Errorf("failed to migrate scan history: %w", err)
		}
	}

	missing, err := database.MissingColumns(db, ScanRecord{}.TableName(), columns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", ScanRecord{}.TableName(), strings.Join(missing, ", "))
	}
	return nil
}

// Create stores rec, assigning an id when it has none.
func (r *Repository) Create(ctx context.Context, rec *ScanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if !r.Enabled() {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	r.logger.Debug("Scan recorded", zap.String("id", rec.ID), zap.String("status", string(rec.Status)))
	return nil
}

// List returns the most recent scans, newest first. An empty document lists
// every document.
func (r *Repository) List(ctx context.Context, document string, limit int) ([]ScanRecord, error) {
	if !r.Enabled() {
		return []ScanRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if document != "" {
		query = query.Where("document = ?", document)
	}

	records := []ScanRecord{}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return records, nil
}

// MarkAccepted stores the number of changes applied from scan id.
func (r *Repository) MarkAccepted(ctx context.Context, id string, accepted int) error {
	if !r.Enabled() {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&ScanRecord{}).Where("id = ?", id).Update("accepted", accepted)
	if res.Error != nil {
		return fmt.Errorf("failed to update scan %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
