package route

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dayplan/src-server/timeutil"
	"dayplan/src-server/utils"
)

func Reminders(muxer *http.ServeMux, as *utils.AppState) {
	type ScheduleReqBody struct {
		Title string `json:"title"`
		At    string `json:"at"` // ISO-8601 or natural language
	}

	// arm one reminder; a rejection is still a 200 with the reason
	muxer.HandleFunc("POST /api/reminders", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			var reqBody ScheduleReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			at, err := as.Natural.ParseOrNatural(reqBody.At, as.Clock.Now().In(as.Config.GetLocation()))
			if err != nil {
				writeError(w, fmt.Errorf("at: %w", err))
				return
			}
			result := as.Scheduler.ScheduleReminder(r.Context(), utils.CleanupString(reqBody.Title), at)
			status := http.StatusOK
			if result.IsArmed() {
				status = http.StatusCreated
			}
			writeJSON(w, status, result)
		}))

	type PendingRespBody struct {
		TriggerID string `json:"triggerId"`
		Body      string `json:"body"`
		FireAt    string `json:"fireAt"`
	}

	// triggers armed but not fired yet
	muxer.HandleFunc("GET /api/reminders", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			pending, err := as.Local.Pending(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			respBody := make([]PendingRespBody, 0, len(pending))
			for _, trigger := range pending {
				respBody = append(respBody, PendingRespBody{
					TriggerID: trigger.ID,
					Body:      trigger.Body,
					FireAt:    timeutil.ToUTC(time.UnixMilli(trigger.FireAt)),
				})
			}
			writeJSON(w, http.StatusOK, respBody)
		}))

	// cancel every pending reminder
	muxer.HandleFunc("DELETE /api/reminders", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			if err := as.Scheduler.CancelAll(r.Context()); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
}
