package events

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"micmap/db"
	"micmap/models"
	"micmap/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if day := r.URL.Query().Get("day"); day != "" {
		if n, err := strconv.Atoi(day); err == nil && n >= 1 && n <= 7 {
			filter["day_of_week"] = n
		}
	}

	cursor, err := db.EventsCollection.Find(ctx, filter)
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

func GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var ev models.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": ps.ByName("eventid")}).Decode(&ev)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}

	// attach the sighting ledger so operators can see which sources still
	// list this event
	cursor, err := db.EventSourcesCollection.Find(ctx, bson.M{"eventid": ev.EventID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch event sources")
		return
	}
	defer cursor.Close(ctx)

	ledger := []models.EventSource{}
	if err := cursor.All(ctx, &ledger); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode event sources")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"event": ev, "sources": ledger})
}
