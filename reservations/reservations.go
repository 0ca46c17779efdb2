package reservations

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"timegrid/db"
	"timegrid/globals"
	"timegrid/grid"
	"timegrid/hub"
	"timegrid/models"
	"timegrid/settings"
	"timegrid/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetReservations returns the full current reservation list — the same
// snapshot shape the WebSocket feed pushes.
func GetReservations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.ReservationsCollection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "reservation_day", Value: 1}, {Key: "time_index", Value: 1}}))
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	reservations := []models.Reservation{}
	if err := cur.All(ctx, &reservations); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reservations)
}

func validateRefs(refs []grid.SlotRef) string {
	if len(refs) == 0 {
		return "no slots requested"
	}
	seen := make(map[grid.SlotRef]bool, len(refs))
	for _, ref := range refs {
		if _, ok := grid.ParseWeekday(string(ref.Day)); !ok {
			return "invalid day"
		}
		if ref.TimeIndex < 0 || ref.TimeIndex > 23 {
			return "invalid time index"
		}
		if seen[ref] {
			return "duplicate slot in request"
		}
		seen[ref] = true
	}
	return ""
}

// slotsFilter matches any of the requested slots.
func slotsFilter(refs []grid.SlotRef) bson.M {
	or := make([]bson.M, len(refs))
	for i, ref := range refs {
		or[i] = bson.M{"reservation_day": ref.Day, "time_index": ref.TimeIndex}
	}
	return bson.M{"$or": or}
}

// rollbackFilter matches exactly the rows one failed submission managed to
// insert: same user, same slots, same batch timestamp.
func rollbackFilter(username string, at time.Time, refs []grid.SlotRef) bson.M {
	f := slotsFilter(refs)
	f["username"] = username
	f["createdAt"] = at
	return f
}

// CreateReservations handles a reservation intent. All-or-nothing: any
// conflict or limit violation rejects the whole request, so the client's
// selection stays intact for a retry.
func CreateReservations(h *hub.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		username, _ := r.Context().Value(globals.UsernameKey).(string)
		if username == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var intent models.ReservationIntent
		if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if reason := validateRefs(intent.Reservations); reason != "" {
			utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"ok": false, "reason": reason})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if open, reason := settings.ReservationsOpen(ctx); !open {
			utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"ok": false, "reason": reason})
			return
		}

		var user models.User
		if err := db.UserCollection.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		held, err := db.ReservationsCollection.CountDocuments(ctx, bson.M{"username": username})
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if int(held)+len(intent.Reservations) > user.AllowedHours {
			utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"ok": false, "reason": "hour-limit-exceeded"})
			return
		}

		// conflict check against already-reserved slots
		taken, err := db.ReservationsCollection.CountDocuments(ctx, slotsFilter(intent.Reservations))
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if taken > 0 {
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"ok": false, "reason": "slot-conflict"})
			return
		}

		now := time.Now()
		docs := make([]interface{}, len(intent.Reservations))
		for i, ref := range intent.Reservations {
			docs[i] = models.Reservation{
				Day:       ref.Day,
				TimeIndex: ref.TimeIndex,
				Username:  username,
				CreatedAt: now,
			}
		}
		if _, err := db.ReservationsCollection.InsertMany(ctx, docs); err != nil {
			// the unique index fired on a concurrent submission. The ordered
			// insert persists everything ahead of the duplicate, so drop this
			// batch before rejecting — otherwise the retry conflicts with the
			// user's own stranded rows.
			if _, derr := db.ReservationsCollection.DeleteMany(ctx,
				rollbackFilter(username, now, intent.Reservations)); derr != nil {
				log.Printf("rollback after conflicting insert: %v", derr)
			}
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"ok": false, "reason": "slot-conflict"})
			return
		}

		h.PushCurrentSnapshot(context.Background())
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "reserved": len(docs)})
	}
}
