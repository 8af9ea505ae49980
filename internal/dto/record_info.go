package dto

import (
	"encoding/json"
	"time"

	"facecounter/internal/model"
)

// RecordInfo is one attendance record as served to the browser.
type RecordInfo struct {
	Label     string    `json:"label"`
	Timestamp time.Time `json:"time"`
	Session   string    `json:"session,omitempty"`
}

// MarshalJSON formats the timestamp the way the ledger stores it.
func (r RecordInfo) MarshalJSON() ([]byte, error) {
	type Alias RecordInfo
	return json.Marshal(&struct {
		Timestamp string `json:"time"`
		Alias
	}{
		Timestamp: r.Timestamp.Format(model.TimestampLayout),
		Alias:     (Alias)(r),
	})
}

// RecordInfos converts ledger records. The result is never nil.
func RecordInfos(records []model.AttendanceRecord) []RecordInfo {
	infos := make([]RecordInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, RecordInfo{Label: rec.Label, Timestamp: rec.Timestamp, Session: rec.Session})
	}
	return infos
}
