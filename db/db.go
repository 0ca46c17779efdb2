package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	UserCollection         *mongo.Collection
	ReservationsCollection *mongo.Collection
	SettingsCollection     *mongo.Collection
	Client                 *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "timegrid"
	}

	UserCollection = Client.Database(dbName).Collection("users")
	ReservationsCollection = Client.Database(dbName).Collection("reservations")
	SettingsCollection = Client.Database(dbName).Collection("settings")

	ensureIndexes()
}

// One reservation per (day, time_index); one user row per username.
func ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	_, err := ReservationsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "reservation_day", Value: 1}, {Key: "time_index", Value: 1}},
		Options: unique,
	})
	if err != nil {
		log.Printf("reservation index: %v", err)
	}

	_, err = UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: unique,
	})
	if err != nil {
		log.Printf("user index: %v", err)
	}
}
