package model

import (
	"encoding/json"
	"time"
)

type EngagementEvent struct {
	ID               int64            `db:"id" json:"id"`
	SessionID        string           `db:"session_id" json:"session_id"`
	ListingID        int64            `db:"listing_id" json:"ponuda_id"`
	CampaignID       *int64           `db:"campaign_id" json:"kampanja_id"`
	EventType        EventType        `db:"event_type" json:"event_type"`
	EventData        *json.RawMessage `db:"event_data" json:"event_data"`
	IPAddress        string           `db:"ip_address" json:"ip_address"`
	UserAgent        *string          `db:"user_agent" json:"user_agent"`
	Referrer         *string          `db:"referrer" json:"referrer"`
	Language         *string          `db:"language" json:"language"`
	TimeSpentSeconds *int             `db:"time_spent_seconds" json:"time_spent_seconds"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

type CreateEngagementEventParams struct {
	SessionID        string
	ListingID        int64
	CampaignID       *int64
	EventType        EventType
	EventData        json.RawMessage
	IPAddress        string
	UserAgent        *string
	Referrer         *string
	Language         *string
	TimeSpentSeconds *int
}

// EventFilter narrows event queries. Zero values mean "no constraint".
type EventFilter struct {
	ListingID  int64
	CampaignID int64
	EventType  EventType
	From       *time.Time
	To         *time.Time
	Limit      int
}

// SummaryFilter narrows analytics rollups.
type SummaryFilter struct {
	ListingID  int64
	CampaignID int64
	From       *time.Time
	To         *time.Time
}

type CountByKey struct {
	Key   string `db:"key" json:"key"`
	Count int64  `db:"count" json:"count"`
}

type DailyCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int64     `db:"count" json:"count"`
}

// EventTotals holds the scalar rollups computed in a single pass over the events table.
type EventTotals struct {
	PageViews      int64    `db:"page_views"`
	UniqueSessions int64    `db:"unique_sessions"`
	AvgTimeSpent   *float64 `db:"avg_time_spent"`
	WhatsAppClicks int64    `db:"whatsapp_clicks"`
	PhotoClicks    int64    `db:"photo_clicks"`
	TotalEvents    int64    `db:"total_events"`
}

type Summary struct {
	TotalViews          int64            `json:"totalViews"`
	UniqueSessions      int64            `json:"uniqueSessions"`
	AvgTimeSpentSeconds *float64         `json:"avgTimeSpentSeconds"`
	WhatsAppClicks      int64            `json:"whatsappClicks"`
	PhotoClicks         int64            `json:"photoClicks"`
	TotalEvents         int64            `json:"totalEvents"`
	ByLanguage          map[string]int64 `json:"byLanguage"`
	ByEventType         map[string]int64 `json:"byEventType"`
	ViewsByDay          []DayViews       `json:"viewsByDay"`
}

type DayViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}
