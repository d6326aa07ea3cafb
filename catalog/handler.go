package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sintetico/config"
	"sintetico/database"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// phaseParam reads ?fase=N, falling back to the configured default phase.
func phaseParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("fase")
	if raw == "" {
		return config.GetConfig().DefaultPhase, nil
	}
	return strconv.Atoi(raw)
}

// writeQueryError maps not-found errors to 404 and logs everything else as a 500.
func writeQueryError(w http.ResponseWriter, logger *zap.Logger, err error, what string) {
	if errors.Is(err, database.ErrPhaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, what+" no encontrado", http.StatusNotFound)
		return
	}
	logger.Error("query failed", zap.String("what", what), zap.Error(err))
	writeJSONError(w, "error al consultar "+what, http.StatusInternalServerError)
}

// ListPhasesHandler returns every phase.
func ListPhasesHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phases, err := database.ListPhases(db)
		if err != nil {
			writeQueryError(w, logger, err, "fases")
			return
		}
		writeJSON(w, phases)
	}
}

// ListFieldsHandler returns the four formative fields.
func ListFieldsHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := database.ListFields(db)
		if err != nil {
			writeQueryError(w, logger, err, "campos")
			return
		}
		writeJSON(w, fields)
	}
}

// SummaryHandler returns per-field counts for ?fase=N.
func SummaryHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			writeJSONError(w, "fase inválida", http.StatusBadRequest)
			return
		}
		summary, err := database.SummarizePhase(db, phase)
		if err != nil {
			writeQueryError(w, logger, err, "fase")
			return
		}
		writeJSON(w, map[string]interface{}{
			"fase":    phase,
			"resumen": summary,
		})
	}
}

// ListContentsHandler lists the content items of ?campo_id=K within ?fase=N.
func ListContentsHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			writeJSONError(w, "fase inválida", http.StatusBadRequest)
			return
		}
		fieldID, err := strconv.ParseInt(r.URL.Query().Get("campo_id"), 10, 64)
		if err != nil {
			writeJSONError(w, "campo_id es obligatorio", http.StatusBadRequest)
			return
		}
		field, err := database.GetFieldByID(db, fieldID)
		if err != nil {
			writeQueryError(w, logger, err, "campo formativo")
			return
		}
		items, err := database.ListContentItems(db, fieldID, phase)
		if err != nil {
			writeQueryError(w, logger, err, "fase")
			return
		}
		writeJSON(w, map[string]interface{}{
			"fase":       phase,
			"campo":      field,
			"contenidos": items,
		})
	}
}

// ListDescriptorsHandler lists the descriptors of ?campo_id=K within ?fase=N,
// narrowed to one content item when ?contenido_id= is given.
func ListDescriptorsHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			writeJSONError(w, "fase inválida", http.StatusBadRequest)
			return
		}
		fieldID, err := strconv.ParseInt(r.URL.Query().Get("campo_id"), 10, 64)
		if err != nil {
			writeJSONError(w, "campo_id es obligatorio", http.StatusBadRequest)
			return
		}
		var contentID int64
		if raw := r.URL.Query().Get("contenido_id"); raw != "" {
			contentID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeJSONError(w, "contenido_id inválido", http.StatusBadRequest)
				return
			}
			item, err := database.GetContentItem(db, contentID)
			if err != nil {
				writeQueryError(w, logger, err, "contenido")
				return
			}
			if item.FieldID != fieldID {
				writeJSONError(w, "el contenido no pertenece al campo formativo", http.StatusBadRequest)
				return
			}
		}
		descriptors, err := database.ListDescriptors(db, phase, fieldID, contentID)
		if err != nil {
			writeQueryError(w, logger, err, "fase")
			return
		}
		writeJSON(w, descriptors)
	}
}

// ContentDetailHandler serves /api/contenidos/{id}.
func ContentDetailHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/api/contenidos/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSONError(w, "id de contenido inválido", http.StatusBadRequest)
			return
		}
		detail, err := database.GetContentDetail(db, id)
		if err != nil {
			writeQueryError(w, logger, err, "contenido")
			return
		}
		writeJSON(w, detail)
	}
}

// SearchHandler searches content titles and descriptor texts with ?q= inside ?fase=N.
func SearchHandler(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phase, err := phaseParam(r)
		if err != nil {
			writeJSONError(w, "fase inválida", http.StatusBadRequest)
			return
		}
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		result, err := database.Search(db, phase, q)
		if err != nil {
			writeQueryError(w, logger, err, "fase")
			return
		}
		writeJSON(w, map[string]interface{}{
			"fase":       phase,
			"q":          q,
			"resultados": result,
		})
	}
}

// ConfigHandler returns the effective configuration.
func ConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, config.GetConfig())
	}
}
