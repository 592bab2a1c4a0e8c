package history

import "time"

// Status is the outcome of a scan.
type Status string

const (
	StatusNoChanges    Status = "no_changes"
	StatusChangesFound Status = "changes_found"
	StatusFailed       Status = "failed"
)

// ScanRecord is one row of scan history.
type ScanRecord struct {
	ID              string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Document        string    `gorm:"column:document;size:1024;index" json:"document"`
	Baseline        string    `gorm:"column:baseline;size:1024" json:"baseline"`
	Status          Status    `gorm:"column:status;size:32" json:"status"`
	Changes         int       `gorm:"column:changes" json:"changes"`
	RecordsAdded    int       `gorm:"column:records_added" json:"records_added"`
	RecordsRemoved  int       `gorm:"column:records_removed" json:"records_removed"`
	RecordsModified int       `gorm:"column:records_modified" json:"records_modified"`
	Error           string    `gorm:"column:error;type:text" json:"error,omitempty"`
	Accepted        int       `gorm:"column:accepted" json:"accepted"`
	StartedAt       time.Time `gorm:"column:started_at;index" json:"started_at"`
	DurationMS      int64     `gorm:"column:duration_ms" json:"duration_ms"`
}

// TableName overrides the table name.
func (ScanRecord) TableName() string {
	return "scan_records"
}

// columns lists the columns Migrate expects to find.
var columns = []string{
	"id", "document", "baseline", "status", "changes",
	"records_added", "records_removed", "records_modified",
	"error", "accepted", "started_at", "duration_ms",
}
