package route

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dayplan/src-server/ical"
	"dayplan/src-server/model"
	"dayplan/src-server/reminder"
	"dayplan/src-server/store"
	"dayplan/src-server/timeutil"
	"dayplan/src-server/utils"
)

func Events(muxer *http.ServeMux, as *utils.AppState) {
	type DayRespBody struct {
		Date   string        `json:"date"`
		Events []model.Event `json:"events"`
	}

	// list the bucket of one day
	muxer.HandleFunc("GET /api/days/{date}/events", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			date := r.PathValue("date")
			if !timeutil.ValidDate(date) {
				writeError(w, fmt.Errorf("%q: %w", date, store.ErrInvalidDate))
				return
			}
			writeJSON(w, http.StatusOK, DayRespBody{
				Date:   date,
				Events: as.EventStore.List(r.Context(), date),
			})
		}))

	type CreateEventReqBody struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Start       string `json:"start"` // ISO-8601 or natural language
		End         string `json:"end"`   // same, defaults to one hour after start
		Location    string `json:"location"`
		Description string `json:"description"`
		Color       string `json:"color"`
		Remind      bool   `json:"remind"`
	}

	type CreateEventRespBody struct {
		DayRespBody
		Event    model.Event      `json:"event"`
		Reminder *reminder.Result `json:"reminder,omitempty"`
	}

	// add an event to one day, optionally arming a reminder for its start
	muxer.HandleFunc("POST /api/days/{date}/events", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			date := r.PathValue("date")

			// #region - parse request body
			var reqBody CreateEventReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			loc := as.Config.GetLocation()
			now := as.Clock.Now().In(loc)
			start, err := as.Natural.ParseOrNatural(reqBody.Start, now)
			if err != nil {
				writeError(w, fmt.Errorf("start: %w", err))
				return
			}
			end := start.Add(time.Hour)
			if reqBody.End != "" {
				if end, err = as.Natural.ParseOrNatural(reqBody.End, now); err != nil {
					writeError(w, fmt.Errorf("end: %w", err))
					return
				}
			}
			event, bucket, err := model.NewEvent(model.NewEventParams{
				ID:          reqBody.ID,
				Title:       utils.CleanupString(reqBody.Title),
				Location:    utils.CleanupString(reqBody.Location),
				Description: reqBody.Description,
				Color:       reqBody.Color,
				Start:       start,
				End:         end,
				Zone:        loc,
			})
			if err != nil {
				writeError(w, err)
				return
			}
			if bucket != date {
				writeError(w, fmt.Errorf("event starts on %s, not %q: %w", bucket, date, store.ErrInvalidDate))
				return
			}
			// #endregion

			events, err := as.EventStore.Add(r.Context(), date, event)
			if err != nil {
				writeError(w, err)
				return
			}

			respBody := CreateEventRespBody{
				DayRespBody: DayRespBody{Date: date, Events: events},
				Event:       event,
			}
			if reqBody.Remind {
				result := as.Scheduler.ScheduleReminder(r.Context(), event.Title, start)
				respBody.Reminder = &result
			}
			writeJSON(w, http.StatusCreated, respBody)
		}))

	// remove the first event with the id from one day
	muxer.HandleFunc("DELETE /api/days/{date}/events/{id}", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			date := r.PathValue("date")
			events, err := as.EventStore.Delete(r.Context(), date, r.PathValue("id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, DayRespBody{Date: date, Events: events})
		}))

	// the aggregated feed across every day
	muxer.HandleFunc("GET /api/events", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, as.Aggregator.GetAllEvents(r.Context()))
		}))

	type NextEventRespBody struct {
		Event     model.Event `json:"event"`
		Countdown string      `json:"countdown"`
		Days      int64       `json:"days"`
		Hours     int64       `json:"hours"`
		Minutes   int64       `json:"minutes"`
		Seconds   int64       `json:"seconds"`
		Urgent    bool        `json:"urgent"`
	}

	// the first event of the feed that hasn't started yet, with a countdown
	muxer.HandleFunc("GET /api/events/next", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			for _, event := range as.Aggregator.GetAllEvents(r.Context()) {
				start, err := event.Start()
				if err != nil {
					continue
				}
				remaining, ok := timeutil.Countdown(start.Sub(as.Clock.Now()))
				if !ok {
					continue
				}
				writeJSON(w, http.StatusOK, NextEventRespBody{
					Event:     event,
					Countdown: remaining.String(),
					Days:      remaining.Days,
					Hours:     remaining.Hours,
					Minutes:   remaining.Minutes,
					Seconds:   remaining.Seconds,
					Urgent:    remaining.Urgent(),
				})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))

	// the aggregated feed as iCalendar
	muxer.HandleFunc("GET /api/events.ics", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			events := as.Aggregator.GetAllEvents(r.Context())
			w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			if err := ical.Write(w, events, "Day plan", as.Clock.Now()); err != nil {
				slog.Warn("can't write to response", "where", "route/events.go", "error", err)
			}
		}))
}
