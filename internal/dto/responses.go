package dto

// HistoryResponse lists the records of one day.
type HistoryResponse struct {
	Date    string       `json:"date"`
	Count   int          `json:"count"`
	Records []RecordInfo `json:"records"`
}

// DatesResponse lists the days that have records.
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// CountResponse is the live counter.
type CountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Known int    `json:"known"`
}

// SessionResponse lists what this process run counted.
type SessionResponse struct {
	Session string       `json:"session"`
	Records []RecordInfo `json:"records"`
}
