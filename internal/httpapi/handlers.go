package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/racerrors"
)

const pathRequired = "path is required. Format: LAYER/FILE_ID or LAYER/FILE_ID/SECTION"

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 20

// contextRequest is the POST /api/rac body.
type contextRequest struct {
	Path          string `json:"path" validate:"required"`
	ClientID      string `json:"client_id"`
	IncludeClient *bool  `json:"include_client"`
}

// tenantRequest is the POST /api/rac/{client} body.
type tenantRequest struct {
	Path          string `json:"path" validate:"required"`
	IncludeClient *bool  `json:"include_client"`
}

// GetContext handles GET /api/context/*.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	q, err := engine.ParsePath(path)
	if err != nil {
		h.fail(w, r, err, path)
		return
	}
	q.ClientID = r.URL.Query().Get("client_id")
	q.IncludeClient = r.URL.Query().Get("include_client") != "false"
	h.resolveTenantless(w, r, q)
}

// PostContext handles POST /api/rac.
func (h *Handler) PostContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := engine.ParsePath(req.Path)
	if err != nil {
		h.fail(w, r, err, req.Path)
		return
	}
	q.ClientID = req.ClientID
	q.IncludeClient = req.IncludeClient == nil || *req.IncludeClient
	h.resolveTenantless(w, r, q)
}

func (h *Handler) resolveTenantless(w http.ResponseWriter, r *http.Request, q engine.Query) {
	res, err := h.engine.Resolve(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, q.Path)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{
		Path:           q.Path,
		Resolved:       true,
		Content:        res.Content,
		Client:         clientBody(res.Client),
		UnresolvedRefs: res.Report.Unresolved,
	})
}

// GetTenantIndex handles GET /api/rac/{client}.
func (h *Handler) GetTenantIndex(w http.ResponseWriter, r *http.Request) {
	slug := tenantSlug(r)
	listing, err := h.engine.ListForTenant(r.Context(), slug)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// PostTenantContext handles POST /api/rac/{client}.
func (h *Handler) PostTenantContext(w http.ResponseWriter, r *http.Request) {
	slug := tenantSlug(r)
	if err := h.engine.Bindings().Check(slug); err != nil {
		h.fail(w, r, err, "")
		return
	}

	var req tenantRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := engine.ParsePath(req.Path)
	if err != nil {
		h.fail(w, r, err, req.Path)
		return
	}
	q.Tenant = slug
	q.IncludeClient = req.IncludeClient == nil || *req.IncludeClient

	res, err := h.engine.Resolve(r.Context(), q)
	if err != nil {
		body := errorFor(err, q.Path)
		var nf *racerrors.NotFoundError
		if errors.As(err, &nf) && nf.Layer == q.Layer.String() {
			h.addLayerSuggestions(r, &body, q, nf.ID)
		}
		h.logFailure(r, err, body.Code)
		writeError(w, statusFor(body.Code), body)
		return
	}
	writeJSON(w, http.StatusOK, tenantResponse{
		Tenant:         slug,
		Path:           q.Path,
		Resolved:       true,
		Content:        res.Content,
		ClientData:     clientBody(res.Client),
		UnresolvedRefs: res.Report.Unresolved,
	})
}

// addLayerSuggestions swaps the flat suggestion list for the richer tenant
// form: similar names and a sample of the layer's files.
func (h *Handler) addLayerSuggestions(r *http.Request, body *errorBody, q engine.Query, fileID string) {
	idx, err := h.engine.Index(r.Context())
	if err != nil {
		return
	}
	s := engine.Suggest(idx, q.Layer, fileID)
	body.Suggestions = nil
	body.Similar = s.Similar
	body.AvailableInLayer = s.AvailableInLayer
	body.Hint = s.Hint
}

// GetRawFile handles GET /api/file/{file_id}.
func (h *Handler) GetRawFile(w http.ResponseWriter, r *http.Request) {
	fileID := strings.TrimSpace(chi.URLParam(r, "file_id"))
	if fileID == "" {
		writeError(w, http.StatusBadRequest, errorBody{Code: CodeFileIDRequired, Message: "file_id is required"})
		return
	}
	raw, err := h.engine.Raw(r.Context(), fileID, r.URL.Query().Get("section"))
	if err != nil {
		body := errorFor(err, "")
		if body.Code == engine.CodeNotFound {
			body.Message = "File not found: " + fileID
		}
		h.logFailure(r, err, body.Code)
		writeError(w, statusFor(body.Code), body)
		return
	}
	writeJSON(w, http.StatusOK, rawResponse{
		FileID:  raw.FileID,
		Section: raw.Section,
		Raw:     true,
		Content: raw.Content,
	})
}

// Health handles GET /healthz. It reports unhealthy when the index cannot
// be built.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	idx, err := h.engine.Index(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "files": idx.Len()})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errorBody{Code: CodeInvalidRequest, Message: "invalid JSON body: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Code: engine.CodeInvalidPath, Message: pathRequired})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, path string) {
	body := errorFor(err, path)
	if body.Code == engine.CodeInvalidPath && path == "" {
		body.Message = pathRequired
	}
	h.logFailure(r, err, body.Code)
	writeError(w, statusFor(body.Code), body)
}

func (h *Handler) logFailure(r *http.Request, err error, code string) {
	ev := h.logger.Debug()
	if statusFor(code) >= http.StatusInternalServerError {
		ev = h.logger.Error()
	}
	ev.Str("path", r.URL.Path).Err(err).Str("code", code).Msg("request failed")
}

func tenantSlug(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(chi.URLParam(r, "client")))
}
