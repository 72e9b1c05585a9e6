package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
	"github.com/talentgrid/gateway/modules/dataimport/domain/mapping"
	"github.com/talentgrid/gateway/modules/dataimport/infrastructure/fileparse"
	"github.com/talentgrid/gateway/modules/dataimport/services"
	"github.com/talentgrid/gateway/pkg/application"
	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/constants"
	"github.com/talentgrid/gateway/pkg/httpapi"
	"github.com/talentgrid/gateway/pkg/middleware"
)

type importRequest struct {
	EntityType       string            `json:"entityType" validate:"required"`
	Records          []map[string]any  `json:"records" validate:"required"`
	Options          services.Options  `json:"options"`
	FieldNameToLabel map[string]string `json:"fieldNameToLabel"`
}

type suggestRequest struct {
	EntityType string   `json:"entityType" validate:"required"`
	Headers    []string `json:"headers" validate:"required"`
}

// DataUploaderController exposes the admin bulk-import surface: parse an
// uploaded file, inspect field mappings, suggest mappings for raw headers,
// and run the import itself.
type DataUploaderController struct {
	app             application.Application
	importer        *services.ImportService
	registry        *mapping.Registry
	maxUploadSize   int64
	maxUploadMemory int64
	basePath        string
}

func NewDataUploaderController(app application.Application) application.Controller {
	conf := configuration.Use()
	return &DataUploaderController{
		app:             app,
		importer:        app.Service(services.ImportService{}).(*services.ImportService),
		registry:        app.Service(mapping.Registry{}).(*mapping.Registry),
		maxUploadSize:   conf.MaxUploadSize,
		maxUploadMemory: conf.MaxUploadMemory,
		basePath:        "/api/admin/data-uploader",
	}
}

func (c *DataUploaderController) Key() string {
	return c.basePath
}

func (c *DataUploaderController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthToken())
	router.HandleFunc("/import", c.ImportRecords).Methods(http.MethodPost)
	router.HandleFunc("/parse", c.ParseUpload).Methods(http.MethodPost)
	router.HandleFunc("/mappings/{entityType}", c.Mappings).Methods(http.MethodGet)
	router.HandleFunc("/suggest-mappings", c.SuggestMappings).Methods(http.MethodPost)
}

// ImportRecords runs a bulk import and always answers 200 with a summary once
// the request itself is well-formed. Row-level failures live inside the
// summary, not in the status code.
func (c *DataUploaderController) ImportRecords(w http.ResponseWriter, r *http.Request) {
	defer c.recoverInternalError(w, r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logRequestError(r, err, "failed to read import request body")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var dto importRequest
	if err := json.Unmarshal(body, &dto); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Wrong shape on a known field, e.g. records as an object.
			_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid request data")
			return
		}
		// Broken JSON tears down the whole request rather than failing rows.
		logRequestError(r, err, "import request body is not valid JSON")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := constants.Validate.Struct(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	et, err := entitytype.Parse(dto.EntityType)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Unsupported entity type: "+dto.EntityType)
		return
	}

	summary := c.importer.Import(r.Context(), et, dto.Records, dto.Options, dto.FieldNameToLabel)
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}

// ParseUpload extracts headers and records from an uploaded CSV or XLSX file
// so the admin UI can preview the data and build a mapping before importing.
func (c *DataUploaderController) ParseUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	if err := r.ParseMultipartForm(c.maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = httpapi.WriteError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "A file upload is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		logRequestError(r, err, "failed to read uploaded file")
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	result, err := fileparse.Parse(header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, fileparse.ErrNoData):
			_ = httpapi.WriteError(w, http.StatusBadRequest, "File contains no data rows")
		case errors.Is(err, fileparse.ErrUnsupportedFormat):
			_ = httpapi.WriteError(w, http.StatusBadRequest, "Unsupported file format")
		default:
			logRequestError(r, err, "failed to parse uploaded file")
			_ = httpapi.WriteError(w, http.StatusBadRequest, "Could not parse file")
		}
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"headers":   result.Headers,
		"records":   result.Records,
		"totalRows": len(result.Records),
	})
}

// Mappings returns the active field mapping table for one entity type,
// including the unique field used for duplicate detection.
func (c *DataUploaderController) Mappings(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["entityType"]
	et, err := entitytype.Parse(raw)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Unsupported entity type: "+raw)
		return
	}

	table, _ := c.registry.Table(et)
	resp := map[string]any{
		"success":     true,
		"entityType":  et.String(),
		"label":       et.Label(),
		"endpoint":    et.Endpoint(),
		"uniqueField": et.UniqueField(),
		"fields":      table,
	}
	if et == entitytype.Organizations {
		resp["nameFallback"] = mapping.OrganizationNameAlternatives()
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, resp)
}

// SuggestMappings matches raw file headers against the known input fields of
// an entity type.
func (c *DataUploaderController) SuggestMappings(w http.ResponseWriter, r *http.Request) {
	var dto suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if err := constants.Validate.Struct(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	et, err := entitytype.Parse(dto.EntityType)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Unsupported entity type: "+dto.EntityType)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"suggestions": c.registry.Suggest(et, dto.Headers),
	})
}

// recoverInternalError keeps an unexpected handler panic inside the JSON
// contract. Error panics expose their message, everything else stays generic.
func (c *DataUploaderController) recoverInternalError(w http.ResponseWriter, r *http.Request) {
	rec := recover()
	if rec == nil {
		return
	}
	if entry := requestLogger(r.Context()); entry != nil {
		entry.WithField("panic", rec).Error("import request failed")
	}
	message := "Internal server error"
	if err, ok := rec.(error); ok && err.Error() != "" {
		message = err.Error()
	}
	_ = httpapi.WriteError(w, http.StatusInternalServerError, message)
}
