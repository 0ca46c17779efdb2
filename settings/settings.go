package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"timegrid/db"
	"timegrid/models"
	"timegrid/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func Get(ctx context.Context, key string) (string, error) {
	var s models.Setting
	err := db.SettingsCollection.FindOne(ctx, bson.M{"key": key}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

func Set(ctx context.Context, key, value string) error {
	_, err := db.SettingsCollection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	return err
}

// ReservationsOpen reports whether reservation submissions are currently
// accepted: the enabled flag must not be "false" and the configured open
// time, if any, must have passed.
func ReservationsOpen(ctx context.Context) (bool, string) {
	enabled, err := Get(ctx, models.SettingReservationEnabled)
	if err == nil && enabled == "false" {
		return false, "reservations-disabled"
	}

	opensAt, err := Get(ctx, models.SettingReservationOpensAt)
	if err != nil || opensAt == "" {
		return true, ""
	}
	t, err := time.Parse(time.RFC3339, opensAt)
	if err != nil {
		return true, ""
	}
	if time.Now().Before(t) {
		return false, "reservations-not-open-yet"
	}
	return true, ""
}

// GetSettings returns every system setting. Admin only.
func GetSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.SettingsCollection.Find(ctx, bson.M{})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	all := []models.Setting{}
	if err := cur.All(ctx, &all); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	out := make(map[string]string, len(all))
	for _, s := range all {
		out[s.Key] = s.Value
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// UpdateSettings upserts the provided key/value pairs. Admin only.
func UpdateSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input map[string]string
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || len(input) == 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	valid := map[string]bool{
		models.SettingReservationEnabled: true,
		models.SettingReservationOpensAt: true,
	}
	for key := range input {
		if !valid[key] {
			http.Error(w, "unknown setting: "+key, http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for key, value := range input {
		if err := Set(ctx, key, value); err != nil {
			http.Error(w, "failed to update setting", http.StatusInternalServerError)
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// GetOpenTime is public: clients show a countdown before reservations open.
func GetOpenTime(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opensAt, err := Get(ctx, models.SettingReservationOpensAt)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"open_datetime": opensAt})
}

// GetServerTime lets clients sync their countdowns to server time.
func GetServerTime(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"server_time": time.Now().UTC().Format(time.RFC3339)})
}
