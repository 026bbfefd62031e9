package routes

import (
	"net/http"
	"path/filepath"

	"micmap/events"
	"micmap/jobs"
	"micmap/venues"

	"github.com/julienschmidt/httprouter"
)

// AddStaticRoutes serves stored assets out of the configured local root, the
// same one the local backend writes under.
func AddStaticRoutes(router *httprouter.Router, assetRoot string) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(filepath.Join(assetRoot, "uploads")))
}

func AddVenueRoutes(router *httprouter.Router) {
	router.GET("/api/venues", venues.GetVenues)
	router.GET("/api/venues/:slug", venues.GetVenue)
	router.GET("/api/venues/:slug/events", venues.GetVenueEvents)
}

func AddEventRoutes(router *httprouter.Router) {
	router.GET("/api/events", events.GetEvents)
	router.GET("/api/events/:eventid", events.GetEvent)
}

func AddJobRoutes(router *httprouter.Router, h *jobs.Handler) {
	router.POST("/api/jobs/index", h.TriggerIndex)
	router.POST("/api/jobs/detail", h.TriggerDetail)
	router.GET("/api/jobs/:jobid", h.GetJobStatus)
}

func AddMaintenanceRoutes(router *httprouter.Router, m *MaintenanceHandler) {
	router.POST("/api/maintenance/cleanup-assets", m.CleanupAssets)
	router.GET("/api/maintenance/duplicate-venues", venues.GetDuplicateReport)
}
