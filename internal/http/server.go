package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/log"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/service"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/storage"
	"github.com/pkg/errors"
)

// NewMux wires the workflow handlers onto a ServeMux.
func NewMux(svc *service.WorkflowService) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/workflow/init", InitHandler(svc))
	mux.HandleFunc("/workflow/advance", AdvanceHandler(svc))
	mux.HandleFunc("/workflow/retreat", RetreatHandler(svc))
	mux.HandleFunc("/workflow/jump", JumpHandler(svc))
	mux.HandleFunc("/workflow/status", StatusHandler(svc))
	mux.HandleFunc("/workflow/history", HistoryHandler(svc))
	mux.HandleFunc("/workflow/permissions", PermissionsHandler(svc))
	return mux
}

// StartServer runs the workflow engine host on the given port.
func StartServer(port string, store storage.Store) error {
	svc := service.NewWorkflowService(store, log.GetLogger())
	log.GetLogger().Infof("Starting SADSA workflow server on :%s", port)
	return http.ListenAndServe(":"+port, NewMux(svc))
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "SADSA workflow server is running")
}

func InitHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		dossierID, actorID, ok := mutationParams(w, r)
		if !ok {
			return
		}
		wi, err := svc.InitializeWorkflow(dossierID, actorID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, wi)
	}
}

func AdvanceHandler(svc *service.WorkflowService) http.HandlerFunc {
	return transitionHandler(svc, func(dossierID, actorID int64, comment string) (models.WorkflowInstance, error) {
		return svc.Advance(dossierID, actorID, comment)
	})
}

func RetreatHandler(svc *service.WorkflowService) http.HandlerFunc {
	return transitionHandler(svc, func(dossierID, actorID int64, comment string) (models.WorkflowInstance, error) {
		return svc.Retreat(dossierID, actorID, comment)
	})
}

func JumpHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		dossierID, actorID, ok := mutationParams(w, r)
		if !ok {
			return
		}
		phaseID, err := strconv.ParseInt(r.FormValue("phase_id"), 10, 64)
		if err != nil {
			http.Error(w, "Missing or invalid 'phase_id' parameter", http.StatusBadRequest)
			return
		}
		if !authorized(w, r, svc, dossierID) {
			return
		}
		wi, err := svc.JumpTo(dossierID, phaseID, actorID, r.FormValue("comment"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, wi)
	}
}

func StatusHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dossierID, ok := dossierParam(w, r)
		if !ok {
			return
		}
		info, err := svc.CurrentPhaseInfo(dossierID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, info)
	}
}

func HistoryHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dossierID, ok := dossierParam(w, r)
		if !ok {
			return
		}
		entries, err := svc.History(dossierID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, entries)
	}
}

func PermissionsHandler(svc *service.WorkflowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dossierID, ok := dossierParam(w, r)
		if !ok {
			return
		}
		role := models.Role(r.FormValue("role"))
		status := models.DossierStatus(r.FormValue("status"))
		actions, err := svc.PermissionsFor(dossierID, role, status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, actions)
	}
}

func transitionHandler(svc *service.WorkflowService, move func(dossierID, actorID int64, comment string) (models.WorkflowInstance, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		dossierID, actorID, ok := mutationParams(w, r)
		if !ok {
			return
		}
		if !authorized(w, r, svc, dossierID) {
			return
		}
		wi, err := move(dossierID, actorID, r.FormValue("comment"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, wi)
	}
}

// authorized runs the role gate when the caller supplies one. Requests
// without a role are trusted (internal callers that checked already).
func authorized(w http.ResponseWriter, r *http.Request, svc *service.WorkflowService, dossierID int64) bool {
	role := r.FormValue("role")
	if role == "" {
		return true
	}
	team := models.CommissionTeam(r.FormValue("team"))
	if err := svc.Authorize(dossierID, models.Role(role), team); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func mutationParams(w http.ResponseWriter, r *http.Request) (dossierID, actorID int64, ok bool) {
	dossierID, err := strconv.ParseInt(r.FormValue("dossier_id"), 10, 64)
	if err != nil {
		http.Error(w, "Missing or invalid 'dossier_id' parameter", http.StatusBadRequest)
		return 0, 0, false
	}
	actorID, err = strconv.ParseInt(r.FormValue("actor_id"), 10, 64)
	if err != nil {
		http.Error(w, "Missing or invalid 'actor_id' parameter", http.StatusBadRequest)
		return 0, 0, false
	}
	return dossierID, actorID, true
}

func dossierParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	dossierID, err := strconv.ParseInt(r.FormValue("dossier_id"), 10, 64)
	if err != nil {
		http.Error(w, "Missing or invalid 'dossier_id' parameter", http.StatusBadRequest)
		return 0, false
	}
	return dossierID, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnknownPhase):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNoActiveWorkflow), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyInitialized),
		errors.Is(err, service.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoForwardEdge), errors.Is(err, service.ErrNoBackwardEdge):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		log.GetLogger().Errorf("Failed to encode error response: %v", encErr)
	}
}
