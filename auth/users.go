package auth

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"timegrid/db"
	"timegrid/models"
	"timegrid/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// parseUsersCSV reads the admin-supplied user list. Expected header:
// username,password,allowed_hours,role. Passwords arrive in plain text and
// are bcrypt-hashed here, never stored as-is.
func parseUsersCSV(r io.Reader) ([]models.User, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"username", "password", "allowed_hours", "role"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var users []models.User
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		username := strings.TrimSpace(record[col["username"]])
		password := record[col["password"]]
		if username == "" || password == "" {
			return nil, fmt.Errorf("line %d: username and password are required", line)
		}
		// usernames carry a unique index; a duplicate here would abort the
		// replacement halfway through
		if seen[username] {
			return nil, fmt.Errorf("line %d: duplicate username %q", line, username)
		}
		seen[username] = true

		hours, err := strconv.Atoi(strings.TrimSpace(record[col["allowed_hours"]]))
		if err != nil || hours < 0 {
			return nil, fmt.Errorf("line %d: invalid allowed_hours", line)
		}

		role := strings.TrimSpace(record[col["role"]])
		if role != "user" && role != "admin" {
			return nil, fmt.Errorf("line %d: role must be user or admin", line)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("line %d: hash password: %w", line, err)
		}

		users = append(users, models.User{
			UserID:       utils.NewID("u"),
			Username:     username,
			Password:     string(hashed),
			AllowedHours: hours,
			Role:         role,
			CreatedAt:    time.Now(),
		})
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no user rows")
	}
	return users, nil
}

// uploadUsersHandler replaces the entire user set with the uploaded CSV.
// Admin-only (enforced by the route).
func uploadUsersHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(2 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		utils.RespondWithError(w, http.StatusBadRequest, "Only CSV files are accepted")
		return
	}

	users, err := parseUsersCSV(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if _, err := db.UserCollection.DeleteMany(ctx, bson.M{}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to clear user list")
		return
	}
	docs := make([]interface{}, len(users))
	for i, u := range users {
		docs[i] = u
	}
	if _, err := db.UserCollection.InsertMany(ctx, docs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store user list")
		return
	}

	// The built-in admin must survive a replace that omits it.
	if err := SeedAdmin(ctx); err != nil {
		log.Printf("re-seed admin: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]int{"users": len(users)},
		fmt.Sprintf("User list replaced with %d users", len(users)), nil)
}

// SeedAdmin inserts the admin account from ADMIN_PASSWORD if no admin user
// exists yet. Called at startup and after each user-list replacement.
func SeedAdmin(ctx context.Context) error {
	err := db.UserCollection.FindOne(ctx, bson.M{"username": "admin"}).Err()
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD not set; admin account not created")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.UserCollection.InsertOne(ctx, models.User{
		UserID:       utils.NewID("u"),
		Username:     "admin",
		Password:     string(hashed),
		AllowedHours: 0,
		Role:         "admin",
		CreatedAt:    time.Now(),
	})
	return err
}
