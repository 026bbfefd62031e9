package venues

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"micmap/db"
	"micmap/models"
	"micmap/rdx"
	"micmap/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func GetVenues(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Try cache
	if cached, _ := rdx.RdxGet("venues"); cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	cursor, err := db.VenuesCollection.Find(ctx, bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch venues")
		return
	}
	defer cursor.Close(ctx)

	venues := []models.Venue{}
	if err := cursor.All(ctx, &venues); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode venues")
		return
	}

	data, _ := json.Marshal(venues)
	rdx.RdxSet("venues", string(data))
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func GetVenue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var venue models.Venue
	err := db.VenuesCollection.FindOne(ctx, bson.M{"slug": ps.ByName("slug")}).Decode(&venue)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch venue")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, venue)
}

func GetVenueEvents(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var venue models.Venue
	err := db.VenuesCollection.FindOne(ctx, bson.M{"slug": ps.ByName("slug")}).Decode(&venue)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch venue")
		return
	}

	cursor, err := db.EventsCollection.Find(ctx, bson.M{"venueid": venue.VenueID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode events")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, events)
}

func GetDuplicateReport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	pairs, err := DuplicateReport(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to build duplicate report")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, pairs)
}
