package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/racerrors"
)

// Error codes that only arise at the HTTP boundary.
const (
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeFileIDRequired   = "FILE_ID_REQUIRED"
)

// errorBody is the JSON error envelope. Only the fields relevant to the
// code are set.
type errorBody struct {
	Error            bool     `json:"error"`
	Code             string   `json:"code"`
	Message          string   `json:"message"`
	Hint             string   `json:"hint,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
	Similar          []string `json:"similar,omitempty"`
	AvailableInLayer []string `json:"available_in_layer,omitempty"`
	DidYouMean       []string `json:"did_you_mean,omitempty"`
	AllowedPaths     []string `json:"allowed_paths,omitempty"`
	AvailableClients []string `json:"available_clients,omitempty"`
}

// contextResponse answers a tenantless query.
type contextResponse struct {
	Path     string          `json:"path"`
	Resolved bool            `json:"resolved"`
	Content  document.Value  `json:"content"`
	Client   *document.Value `json:"client,omitempty"`
	// UnresolvedRefs lists $ref pointers left verbatim in Content
	UnresolvedRefs []string `json:"unresolved_refs,omitempty"`
}

// tenantResponse answers a tenant query. The tenant slug takes the client
// key, so the attached document moves to client_data.
type tenantResponse struct {
	Tenant         string          `json:"client"`
	Path           string          `json:"path"`
	Resolved       bool            `json:"resolved"`
	Content        document.Value  `json:"content"`
	ClientData     *document.Value `json:"client_data,omitempty"`
	UnresolvedRefs []string        `json:"unresolved_refs,omitempty"`
}

type rawResponse struct {
	FileID  string         `json:"file_id"`
	Section string         `json:"section,omitempty"`
	Raw     bool           `json:"raw"`
	Content document.Value `json:"content"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	body.Error = true
	writeJSON(w, status, body)
}

// statusFor maps an engine error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case engine.CodeInvalidPath, engine.CodeClientRequired, CodeInvalidRequest, CodeFileIDRequired:
		return http.StatusBadRequest
	case engine.CodeAccessDenied:
		return http.StatusForbidden
	case engine.CodeNotFound, engine.CodeSectionNotFound, engine.CodeUnknownClient:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorFor builds the envelope for err. path is the request path as given.
func errorFor(err error, path string) errorBody {
	code := engine.Code(err)
	body := errorBody{Code: code, Message: err.Error()}

	var (
		nf  *racerrors.NotFoundError
		sec *racerrors.SectionNotFoundError
		ad  *racerrors.AccessDeniedError
		ut  *racerrors.UnknownTenantError
		cr  *engine.ClientRequiredError
		ip  *engine.InvalidPathError
	)
	switch {
	case errors.As(err, &ip):
		if ip.Message != "" {
			body.Message = ip.Message
		}
	case errors.As(err, &cr):
		body.Message = "client_id is required for this path"
		body.AvailableClients = cr.Available
	case errors.As(err, &ut):
		body.Message = "Unknown client: " + ut.Slug
		body.AvailableClients = ut.Known
	case errors.As(err, &ad):
		body.Message = "Access denied: cannot access other clients' data from /" + ad.Slug + " endpoint"
		body.Hint = ad.Hint
		body.DidYouMean = clientPaths(ad.DidYouMean)
		body.AllowedPaths = clientPaths(ad.Allowed)
	case errors.As(err, &sec):
		body.Message = "Section not found: " + sec.Path
	case errors.As(err, &nf):
		if path != "" {
			body.Message = "Path not found: " + path
		}
		body.Hint = nf.Hint
		body.Suggestions = nf.Suggestions
	}
	return body
}

func clientPaths(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "CLIENT/" + id
	}
	return out
}

// clientBody renders an attached client document as {id, ...content}.
func clientBody(c *engine.ClientDocument) *document.Value {
	if c == nil {
		return nil
	}
	fields := []document.Field{document.F("id", document.String(c.ID))}
	if m, ok := c.Content.AsMapping(); ok {
		m.Range(func(k string, v document.Value) bool {
			if k != "id" {
				fields = append(fields, document.F(k, v))
			}
			return true
		})
	} else if !c.Content.IsNull() {
		fields = append(fields, document.F("content", c.Content))
	}
	v := document.Map(fields...)
	return &v
}
