package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbase/collections-sub001"
)

// specLoader is satisfied by internal.LocalSpecLoader and
// internal.S3SpecLoader.
type specLoader interface {
	Load(ctx context.Context, collection string) (collections.ColumnarAttributesSpec, error)
}

// Server holds the collaborators the HTTP handlers depend on.
type Server struct {
	storage collections.Storage
	specs   specLoader
	mux     *http.ServeMux
}

// NewServer creates a new Server instance.
func NewServer(storage collections.Storage, specs specLoader) *Server {
	return &Server{
		storage: storage,
		specs:   specs,
		mux:     http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/v1/", s.handleFilter)
}

// Start starts the HTTP server on the given port.
func (s *Server) Start(port string) error {
	return http.ListenAndServe(":"+port, s.mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFilter handles GET /api/v1/{product}/filter. It builds a
// FilterSet from the request's filter_* query parameters against the
// data product's column spec and returns the compiled query program
// (AQL text plus bind variables) as JSON. It does not execute the
// query: execution against the real search backend is the caller's
// responsibility.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requestID := uuid.New().String()
	log := zap.S().With("requestId", requestID)

	product, err := parseProductPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log = log.With("dataProduct", product)

	q := r.URL.Query()
	collectionID := q.Get("collection_id")
	loadVer := q.Get("load_ver")
	arangoColl := q.Get("collection")
	viewName := q.Get("view")
	if collectionID == "" || loadVer == "" {
		writeError(w, http.StatusBadRequest, "collection_id and load_ver are required")
		return
	}
	log = log.With("collectionId", collectionID, "loadVer", loadVer)

	var spec collections.ColumnarAttributesSpec
	if collections.IsGenericViewProduct(product) {
		spec = collections.CreateGenericSpec()
		if viewName == "" {
			viewName = collections.GetGenericViewName(product)
		}
	}
	loaded, err := s.specs.Load(r.Context(), product)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading column spec: "+err.Error())
		return
	}
	spec, err = spec.Merge(product, loaded, product)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	columns := make([]collections.AttributesColumn, len(spec.Columns))
	for i, c := range spec.Columns {
		columns[i] = collections.AttributesColumn{AttributesColumnSpec: c}
	}

	fs, err := collections.GetFilters(r.Context(), s.storage, q, collections.GetFiltersParams{
		CollectionArango: arangoColl,
		CollectionID:     collectionID,
		LoadVer:          loadVer,
		DataProduct:      product,
		Columns:          columns,
		ViewName:         viewName,
		Conjunction:      true,
		Limit:            1000,
	})
	if err != nil {
		status := http.StatusBadRequest
		var fe *collections.FilterError
		if errors.As(err, &fe) && fe.Type == collections.ErrorTypeValue {
			status = http.StatusInternalServerError
		}
		log.Warnw("filter compilation rejected", "error", err)
		writeError(w, status, err.Error())
		return
	}

	query, err := fs.ToQuery()
	if err != nil {
		log.Errorw("query compilation failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Infow("compiled filter query", "filterCount", fs.Len())
	writeSuccess(w, http.StatusOK, map[string]any{
		"aql":       query.AQL,
		"bind_vars": query.BindVars,
	})
}
