package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"facecounter/internal/attendance"
	"facecounter/internal/dto"
	"facecounter/internal/logger"
	"facecounter/internal/model"
)

// CountHandler returns today's visitor count and the number of known faces.
// A day that ended since the last sighting reads as zero.
func CountHandler(state *attendance.State, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state.Rollover(time.Now())
		writeJSON(w, logger, dto.CountResponse{
			Date:  state.Today().String(),
			Count: state.Count(),
			Known: state.KnownCount(),
		})
	}
}

// HistoryHandler returns the records of the day given by the "date"
// query parameter (YYYY-MM-DD), today when absent.
func HistoryHandler(state *attendance.State, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := model.DateOf(time.Now())
		if v := r.URL.Query().Get("date"); v != "" {
			parsed, err := model.ParseDate(v)
			if err != nil {
				http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = parsed
		}

		records := dto.RecordInfos(state.History(day))
		writeJSON(w, logger, dto.HistoryResponse{
			Date:    day.String(),
			Count:   len(records),
			Records: records,
		})
	}
}

// HistoryDatesHandler returns every day that has records, oldest first.
func HistoryDatesHandler(state *attendance.State, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := state.Dates()
		dates := make([]string, 0, len(days))
		for _, d := range days {
			dates = append(dates, d.String())
		}
		writeJSON(w, logger, dto.DatesResponse{Dates: dates})
	}
}

// SessionHandler returns the sightings counted since the process started.
func SessionHandler(state *attendance.State, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, dto.SessionResponse{
			Session: state.SessionID(),
			Records: dto.RecordInfos(state.SessionLog()),
		})
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
