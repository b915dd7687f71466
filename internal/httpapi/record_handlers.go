package httpapi

import (
	"net/http"
	"time"

	"complyhq.org/internal/records"
)

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	sum, err := a.store.Summary(r.Context(), principal, target.ID)
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":  target.Slug,
		"summary": sum,
	})
}

// Buildings ----------------------------------------------------------------

type buildingRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

func (a *API) handleListBuildings(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	list, err := a.store.Buildings().ListByTenant(r.Context(), principal, target.ID)
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buildings": list})
}

func (a *API) handleCreateBuilding(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	var req buildingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// The tenant reference comes from the validated route, never from the
	// request body.
	b := &records.Building{TenantID: target.ID, Name: req.Name, Address: req.Address}
	if err := a.store.Buildings().Create(r.Context(), principal, b); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) handleGetBuilding(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	b, err := a.store.Buildings().Get(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) handleUpdateBuilding(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	var req buildingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b := &records.Building{ID: r.PathValue("id"), TenantID: target.ID, Name: req.Name, Address: req.Address}
	if err := a.store.Buildings().Update(r.Context(), principal, b); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) handleDeleteBuilding(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	if err := a.store.Buildings().Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// Documents ----------------------------------------------------------------

type documentRequest struct {
	Title   string `json:"title"`
	FileKey string `json:"file_key,omitempty"`
}

func (a *API) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	list, err := a.store.Documents().ListByBuilding(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": list})
}

func (a *API) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	doc := &records.Document{
		TenantID:   target.ID,
		BuildingID: r.PathValue("id"),
		Title:      req.Title,
		FileKey:    req.FileKey,
	}
	if err := a.store.Documents().Create(r.Context(), principal, doc); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (a *API) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	doc, err := a.store.Documents().Get(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	if err := a.store.Documents().Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// Tasks --------------------------------------------------------------------

type taskRequest struct {
	Title      string     `json:"title"`
	BuildingID string     `json:"building_id,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	list, err := a.store.Tasks().ListByTenant(r.Context(), principal, target.ID)
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	target, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	task := &records.Task{
		TenantID:   target.ID,
		BuildingID: req.BuildingID,
		Title:      req.Title,
		DueAt:      req.DueAt,
	}
	if err := a.store.Tasks().Create(r.Context(), principal, task); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	task, err := a.store.Tasks().Get(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *API) handleSetTaskStatus(w http.ResponseWriter, r *http.Request) {
	_, principal, ok := a.tenantRequest(w, r)
	if !ok {
		return
	}
	var req taskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.Tasks().SetStatus(r.Context(), principal, r.PathValue("id"), req.Status); err != nil {
		writeError(w, r, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": req.Status})
}
