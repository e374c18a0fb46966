package api

import (
	"net/http"
	"strconv"

	"github.com/zanvidmar/najdeno/internal/imaging"
	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
	"github.com/zanvidmar/najdeno/internal/workflow"
)

// FoundHandler handles found item endpoints.
type FoundHandler struct {
	Engine *workflow.Engine
}

type createFoundRequest struct {
	CategoryID      int64  `json:"category_id"`
	LocationID      int64  `json:"location_id"`
	ItemName        string `json:"item_name"`
	Description     string `json:"description"`
	DateFound       string `json:"date_found"`
	StorageLocation string `json:"storage_location"`
}

type updateFoundRequest struct {
	CategoryID      *int64  `json:"category_id"`
	LocationID      *int64  `json:"location_id"`
	ItemName        *string `json:"item_name"`
	Description     *string `json:"description"`
	DateFound       *string `json:"date_found"`
	StorageLocation *string `json:"storage_location"`
	Status          *string `json:"status"`
}

// List handles GET /api/found. Open to all authenticated users so owners can
// browse what was handed in.
func (h *FoundHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.FoundItemFilter{
		Status: q.Get("status"),
		Query:  q.Get("q"),
	}
	if v, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil {
		filter.CategoryID = v
	}
	if v, err := strconv.ParseInt(q.Get("location_id"), 10, 64); err == nil {
		filter.LocationID = v
	}
	if v, err := strconv.ParseUint(q.Get("limit"), 10, 32); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.ParseUint(q.Get("offset"), 10, 32); err == nil {
		filter.Offset = v
	}

	items, err := store.ListFoundItems(r.Context(), h.Engine.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list found items")
		return
	}
	if items == nil {
		items = []model.FoundItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/found.
func (h *FoundHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFoundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.DateFound)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, synth, err := h.Engine.CreateFoundItem(r.Context(), workflow.FoundItemInput{
		CategoryID:      req.CategoryID,
		LocationID:      req.LocationID,
		ItemName:        req.ItemName,
		Description:     req.Description,
		DateFound:       date,
		StorageLocation: req.StorageLocation,
	}, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"item":     item,
		"matching": synth,
	})
}

// Get handles GET /api/found/{id}.
func (h *FoundHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get found item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "found item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/found/{id}. Only the provided fields change.
func (h *FoundHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateFoundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := workflow.FoundItemPatch{
		CategoryID:      req.CategoryID,
		LocationID:      req.LocationID,
		ItemName:        req.ItemName,
		Description:     req.Description,
		StorageLocation: req.StorageLocation,
		Status:          req.Status,
	}
	if req.DateFound != nil {
		date, err := parseDate(*req.DateFound)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.DateFound = &date
	}

	item, err := h.Engine.UpdateFoundItem(r.Context(), id, patch, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Return handles POST /api/found/{id}/return, the terminal hand-back.
func (h *FoundHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	result, err := h.Engine.ReturnFoundItem(r.Context(), id, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Delete handles DELETE /api/found/{id}.
func (h *FoundHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Engine.DeleteFoundItem(r.Context(), id, requestActor(r)); err != nil {
		workflowError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "found item deleted"})
}

// UploadImage handles PUT /api/found/{id}/image. The upload is normalized
// before storage.
func (h *FoundHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get found item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "found item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessPhoto(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetFoundItemImage(r.Context(), h.Engine.DB, id, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/found/{id}/image.
func (h *FoundHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetFoundItemImage(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
