package venues

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"micmap/db"
	"micmap/fetch"
	"micmap/models"
	"micmap/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureCity find-or-creates the city (and its country) and returns the city
// id. Concurrent creates are absorbed through the unique slug indexes.
func EnsureCity(ctx context.Context, cityName, countryName string) (string, error) {
	countryID, err := ensureCountry(ctx, countryName)
	if err != nil {
		return "", err
	}

	slug := utils.Slugify(cityName)
	filter := bson.M{"slug": slug, "countryid": countryID}

	var city models.City
	err = db.CitiesCollection.FindOne(ctx, filter).Decode(&city)
	if err == nil {
		return city.CityID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	city = models.City{
		CityID:    utils.GetUUID(),
		Name:      cityName,
		Slug:      slug,
		CountryID: countryID,
		CreatedAt: time.Now(),
	}
	_, err = db.CitiesCollection.InsertOne(ctx, city)
	if db.IsDup(err) {
		if err := db.CitiesCollection.FindOne(ctx, filter).Decode(&city); err != nil {
			return "", err
		}
		return city.CityID, nil
	}
	if err != nil {
		return "", err
	}
	return city.CityID, nil
}

func ensureCountry(ctx context.Context, name string) (string, error) {
	slug := utils.Slugify(name)
	filter := bson.M{"slug": slug}

	var country models.Country
	err := db.CountriesCollection.FindOne(ctx, filter).Decode(&country)
	if err == nil {
		return country.CountryID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	country = models.Country{
		CountryID: utils.GetUUID(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now(),
	}
	_, err = db.CountriesCollection.InsertOne(ctx, country)
	if db.IsDup(err) {
		if err := db.CountriesCollection.FindOne(ctx, filter).Decode(&country); err != nil {
			return "", err
		}
		return country.CountryID, nil
	}
	if err != nil {
		return "", err
	}
	return country.CountryID, nil
}

type geocodeResult struct {
	PlaceID   string  `json:"place_id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Geocode enriches an address with coordinates and an external place id.
// It is an optional fidelity input: no key configured or a lookup failure
// returns zero values and the caller proceeds without enrichment.
func Geocode(ctx context.Context, address, postcode string) (models.Coordinates, string) {
	key := os.Getenv("GEOCODE_API_KEY")
	base := os.Getenv("GEOCODE_API_URL")
	if key == "" || base == "" {
		return models.Coordinates{}, ""
	}

	q := url.Values{}
	q.Set("q", address+" "+postcode)
	q.Set("key", key)

	var results []geocodeResult
	if err := fetch.JSON(ctx, fmt.Sprintf("%s?%s", base, q.Encode()), &results); err != nil || len(results) == 0 {
		return models.Coordinates{}, ""
	}
	first := results[0]
	return models.Coordinates{Latitude: first.Latitude, Longitude: first.Longitude}, first.PlaceID
}
