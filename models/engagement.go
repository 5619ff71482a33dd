package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Engagement event types emitted by the publishing pipeline
const (
	EventPageView    = "page_view"
	EventScrollDepth = "scroll_depth"
	EventComment     = "comment"
	EventShare       = "share"
	EventSubscribe   = "subscribe"
)

// EngagementEvent is one row of the synced content engagement table
type EngagementEvent struct {
	EventID            string          `gorm:"column:event_id" json:"event_id"`
	Timestamp          time.Time       `gorm:"column:timestamp" json:"timestamp"`
	ReaderID           string          `gorm:"column:reader_id" json:"reader_id"`
	EventType          string          `gorm:"column:event_type" json:"event_type"`
	ArticleTitle       string          `gorm:"column:article_title" json:"article_title"`
	Publication        string          `gorm:"column:publication" json:"publication"`
	DeviceType         string          `gorm:"column:device_type" json:"device_type"`
	City               string          `gorm:"column:city" json:"city"`
	Country            string          `gorm:"column:country" json:"country"`
	Latitude           float64         `gorm:"column:latitude" json:"latitude"`
	Longitude          float64         `gorm:"column:longitude" json:"longitude"`
	EstimatedAdRevenue decimal.Decimal `gorm:"column:estimated_ad_revenue;type:decimal(12,4)" json:"estimated_ad_revenue"`
}

// IsInteraction reports whether the event counts towards engagement
func (e EngagementEvent) IsInteraction() bool {
	switch e.EventType {
	case EventComment, EventShare, EventSubscribe:
		return true
	}
	return false
}
