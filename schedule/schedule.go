package schedule

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"timegrid/hub"
	"timegrid/models"
	"timegrid/reservations"
	"timegrid/settings"
	"timegrid/utils"

	"github.com/julienschmidt/httprouter"
)

// Reservations for the new week are wiped this long before the configured
// open time, giving users an empty grid when booking opens.
const resetLead = time.Hour

// Scheduler arms a one-shot reset ahead of each configured open time. The
// open time is persisted in settings so a restart re-arms the timer.
type Scheduler struct {
	h     *hub.Hub
	mu    sync.Mutex
	timer *time.Timer
}

func New(h *hub.Hub) *Scheduler {
	return &Scheduler{h: h}
}

// resetTimeFor returns when the wipe should fire for a given open time.
func resetTimeFor(openAt time.Time) time.Time {
	return openAt.Add(-resetLead)
}

// Restore re-arms the timer from the persisted open time, if it is still in
// the future. Called once at startup.
func (s *Scheduler) Restore(ctx context.Context) {
	raw, err := settings.Get(ctx, models.SettingReservationOpensAt)
	if err != nil || raw == "" {
		return
	}
	openAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		log.Printf("stored open time unparseable: %v", err)
		return
	}
	if time.Now().After(openAt) {
		return
	}
	s.arm(openAt)
	log.Printf("reservation reset restored, fires at %s", resetTimeFor(openAt).Format(time.RFC3339))
}

// SetOpenTime persists the open time and (re)arms the reset.
func (s *Scheduler) SetOpenTime(ctx context.Context, openAt time.Time) error {
	if err := settings.Set(ctx, models.SettingReservationOpensAt, openAt.Format(time.RFC3339)); err != nil {
		return err
	}
	s.arm(openAt)
	return nil
}

func (s *Scheduler) arm(openAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	delay := time.Until(resetTimeFor(openAt))
	if delay < 0 {
		// open time is near; wipe right away
		delay = 0
	}
	s.timer = time.AfterFunc(delay, s.runReset)
}

func (s *Scheduler) runReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reservations.ClearAll(ctx); err != nil {
		log.Printf("scheduled reset failed: %v", err)
		return
	}
	log.Println("reservations cleared by schedule")
	s.h.PushSnapshot(nil)
}

// Stop cancels a pending reset.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// SetSchedule is the admin endpoint configuring the next open time.
func SetSchedule(s *Scheduler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req models.ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		openAt, err := time.Parse(time.RFC3339, req.OpenDatetime)
		if err != nil {
			http.Error(w, "invalid datetime, want RFC 3339", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.SetOpenTime(ctx, openAt); err != nil {
			http.Error(w, "failed to store schedule", http.StatusInternalServerError)
			return
		}

		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"ok":         true,
			"open_time":  openAt.Format(time.RFC3339),
			"reset_time": resetTimeFor(openAt).Format(time.RFC3339),
		})
	}
}

// GetSchedule returns the configured open time. Admin only; the public
// variant lives in the settings package.
func GetSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	settings.GetOpenTime(w, r, ps)
}
