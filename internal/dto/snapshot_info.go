package dto

import (
	"encoding/json"
	"time"
)

// SnapshotInfo represents parsed metadata about a stored snapshot.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Date      time.Time `json:"date"`
	TimeOfDay time.Time `json:"timeOfDay"`
}

// MarshalJSON customizes JSON output for SnapshotInfo to format date and time-of-day.
func (p SnapshotInfo) MarshalJSON() ([]byte, error) {
	type Alias SnapshotInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      p.Date.Format("2006-01-02"),
		TimeOfDay: p.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(p),
	})
}

// SnapshotsData is the snapshot gallery response.
type SnapshotsData struct {
	Snapshots []SnapshotInfo `json:"snapshots"`
	Dir       string         `json:"dir"`
	Length    int            `json:"length"`
}
