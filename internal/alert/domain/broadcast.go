package domain

import (
	"errors"
	"time"
)

// Collections watched by the citizen dashboard.
const (
	CollectionIncidents      = "incidents"
	CollectionShelters       = "shelters"
	CollectionSafeZones      = "safeZones"
	CollectionCitizenReports = "citizenReports"
	CollectionBroadcasts     = "broadcasts"

	// BroadcastOrderField is the server-assigned ordering key of broadcasts.
	BroadcastOrderField = "timestamp"
)

var ErrInvalidBroadcast = errors.New("broadcast title is required")

// BroadcastRecord is an operator-issued alert. Timestamp is nil until the
// server commits the write.
type BroadcastRecord struct {
	ID        string     `firestore:"-" json:"id"`
	Title     string     `firestore:"title" json:"title"`
	Message   string     `firestore:"message" json:"message"`
	Timestamp *time.Time `firestore:"timestamp" json:"timestamp"`
}

// Stats is the dashboard view derived from the watched collections.
type Stats struct {
	Incidents      int               `json:"incidents"`
	Shelters       int               `json:"shelters"`
	SafeZones      int               `json:"safe_zones"`
	CitizenReports int               `json:"citizen_reports"`
	Broadcasts     []BroadcastRecord `json:"broadcasts"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
