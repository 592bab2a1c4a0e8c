// Package database opens the scan history database and inspects its schema.
//
// It wraps GORM and supports two drivers: sqlite (the default, a local file)
// and mysql for shared deployments.
//
// # Schema Inspection
//
// TableColumns and MissingColumns read the live column list so callers can
// verify that a migrated table has the columns their models expect.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("History disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "scan_records", []string{"id", "document"})
package database
