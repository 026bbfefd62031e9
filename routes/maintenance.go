package routes

import (
	"net/http"

	"micmap/filemgr"
	"micmap/utils"

	"github.com/julienschmidt/httprouter"
)

type MaintenanceHandler struct {
	Assets *filemgr.Store
}

// CleanupAssets runs the duplicate-asset sweep. ?dry_run=true reports what
// would go without touching anything.
func (m *MaintenanceHandler) CleanupAssets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dryRun := r.URL.Query().Get("dry_run") == "true"

	report, err := m.Assets.CleanupDuplicates(dryRun)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Cleanup failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, report)
}
