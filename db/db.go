package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	SourcesCollection      *mongo.Collection
	CountriesCollection    *mongo.Collection
	CitiesCollection       *mongo.Collection
	VenuesCollection       *mongo.Collection
	PerformersCollection   *mongo.Collection
	EventsCollection       *mongo.Collection
	EventSourcesCollection *mongo.Collection
	JobsCollection         *mongo.Collection
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

	database := Client.Database("micmap")
	SourcesCollection = database.Collection("sources")
	CountriesCollection = database.Collection("countries")
	CitiesCollection = database.Collection("cities")
	VenuesCollection = database.Collection("venues")
	PerformersCollection = database.Collection("performers")
	EventsCollection = database.Collection("events")
	EventSourcesCollection = database.Collection("eventsources")
	JobsCollection = database.Collection("jobs")
}

// EnsureIndexes creates the unique indexes the upsert paths rely on for
// idempotence under concurrent workers. Upserts react to duplicate-key errors
// by re-reading and merging rather than failing the caller.
func EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := VenuesCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "name_key", Value: 1}, {Key: "postcode", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "placeid", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"placeid": bson.M{"$type": "string", "$gt": ""}})},
	})
	if err != nil {
		return err
	}

	// unique only for weekly rows: a venue may host several one-offs on the
	// same weekday, but at most one canonical weekly event per (venue, day)
	_, err = EventsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "venueid", Value: 1}, {Key: "day_of_week", Value: 1}, {Key: "frequency", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(
			bson.M{"frequency": "weekly"}),
	})
	if err != nil {
		return err
	}

	_, err = EventSourcesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "eventid", Value: 1}, {Key: "sourceid", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = PerformersCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "sourceid", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = CitiesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}, {Key: "countryid", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = CountriesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: unique,
	})
	return err
}

// IsDup reports whether err is a unique-constraint violation.
func IsDup(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
