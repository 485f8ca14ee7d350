package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
	"github.com/kirillkom/childcare-policy-rag/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	ingest  ports.DocumentIngestor
	query   ports.DocumentQueryService
	docs    ports.DocumentReader
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	ingest ports.DocumentIngestor,
	query ports.DocumentQueryService,
	docs ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
) *Router {
	if m == nil {
		m = metrics.NewHTTPServerMetrics(serviceName)
	}
	return &Router{
		ingest:  ingest,
		query:   query,
		docs:    docs,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question   string `json:"question"`
		Limit      int    `json:"limit"`
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.query.Answer(r.Context(), req.Question, req.Limit, domain.SearchFilter{
		DocumentID: req.DocumentID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordRAGObservation(serviceName, len(answer.Sources), time.Since(start))

	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
