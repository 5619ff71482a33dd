package feed

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lakebase_dashboards/models"
)

// openSchemaDB opens an in-memory database with an attached schema so
// schema-qualified table names resolve like they do on Postgres.
func openSchemaDB(t *testing.T, schema string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Exec("ATTACH DATABASE ':memory:' AS " + schema).Error; err != nil {
		t.Fatalf("attach: %v", err)
	}
	return db
}

func TestGormSource_NewestFirstWithLimit(t *testing.T) {
	db := openSchemaDB(t, "telcom")
	err := db.Exec(`CREATE TABLE telcom.iot_data_synced (
		timestamp DATETIME, tower_id TEXT, region TEXT, data_usage_mb REAL,
		active_users INTEGER, call_drop_rate REAL, signal_strength_dbm REAL)`).Error
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	seed := []models.IoTReading{
		{Timestamp: base, TowerID: "T1", Region: "North", DataUsageMB: 10, ActiveUsers: 5},
		{Timestamp: base.Add(2 * time.Minute), TowerID: "T2", Region: "South", DataUsageMB: 30, ActiveUsers: 7},
		{Timestamp: base.Add(time.Minute), TowerID: "T1", Region: "North", DataUsageMB: 20, ActiveUsers: 6},
	}
	if err := db.Table("telcom.iot_data_synced").Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := NewGormSource[models.IoTReading](db, "telcom", "iot_data_synced", 2).Query(t.Context())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].TowerID != "T2" || rows[1].DataUsageMB != 20 {
		t.Fatalf("rows not newest first: %+v", rows)
	}
	if rows[0].SignalStrengthDBM != nil {
		t.Fatalf("expected NULL signal strength, got %v", *rows[0].SignalStrengthDBM)
	}
}

func TestGormSource_MissingTable(t *testing.T) {
	db := openSchemaDB(t, "publishing")
	_, err := NewGormSource[models.EngagementEvent](db, "publishing", "content_engagement_synced", 0).Query(t.Context())
	if err == nil {
		t.Fatal("expected error for missing table")
	}
}
