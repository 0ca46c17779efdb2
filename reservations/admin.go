package reservations

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"timegrid/db"
	"timegrid/grid"
	"timegrid/hub"
	"timegrid/models"
	"timegrid/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminUpsertReservation forces a slot onto a named user, replacing any
// existing occupant.
func AdminUpsertReservation(h *hub.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req models.AdminReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if _, ok := grid.ParseWeekday(string(req.Day)); !ok || req.TimeIndex < 0 || req.TimeIndex > 23 || req.Username == "" {
			http.Error(w, "missing or invalid fields", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, err := db.ReservationsCollection.UpdateOne(ctx,
			bson.M{"reservation_day": req.Day, "time_index": req.TimeIndex},
			bson.M{"$set": bson.M{"username": req.Username, "createdAt": time.Now()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		h.PushCurrentSnapshot(context.Background())
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true})
	}
}

// AdminDeleteReservation removes one slot regardless of its occupant.
func AdminDeleteReservation(h *hub.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req models.SlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := db.ReservationsCollection.DeleteOne(ctx,
			bson.M{"reservation_day": req.Day, "time_index": req.TimeIndex})
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if res.DeletedCount == 0 {
			http.Error(w, "reservation not found", http.StatusNotFound)
			return
		}

		h.PushCurrentSnapshot(context.Background())
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
	}
}

// AdminClearReservations wipes the whole week.
func AdminClearReservations(h *hub.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := ClearAll(ctx); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		h.PushSnapshot(nil)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
	}
}

// ClearAll deletes every reservation. Shared with the scheduled reset.
func ClearAll(ctx context.Context) error {
	_, err := db.ReservationsCollection.DeleteMany(ctx, bson.M{})
	return err
}
