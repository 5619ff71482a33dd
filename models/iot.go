package models

import "time"

// IoTReading is one row of the synced telecom IoT table
type IoTReading struct {
	Timestamp         time.Time `gorm:"column:timestamp" json:"timestamp"`
	TowerID           string    `gorm:"column:tower_id" json:"tower_id"`
	Region            string    `gorm:"column:region" json:"region"`
	DataUsageMB       float64   `gorm:"column:data_usage_mb" json:"data_usage_mb"`
	ActiveUsers       int64     `gorm:"column:active_users" json:"active_users"`
	CallDropRate      float64   `gorm:"column:call_drop_rate" json:"call_drop_rate"`
	SignalStrengthDBM *float64  `gorm:"column:signal_strength_dbm" json:"signal_strength_dbm,omitempty"`
}
