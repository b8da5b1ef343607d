package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cuemby/vsim/pkg/metrics"
	"github.com/cuemby/vsim/pkg/storage"
)

// Server is the `vsim serve` control plane: health/metrics endpoints,
// a REST view over persisted telemetry, and the live websocket stream.
type Server struct {
	router *chi.Mux
	http   *http.Server
}

// ContainerLimitsFunc resolves a container label to its OCI-shaped
// resource limits (pkg/software.Container.OCIResources), or ok=false if
// no such container exists.
type ContainerLimitsFunc func(label string) (res *specs.LinuxResources, ok bool)

// NewServer builds the router. store may be nil, as `vsim run` passes it
// when --snapshot-db is empty, in which case the REST snapshot routes answer
// 503 rather than panicking. containerLimits may be nil, in which case
// the /containers/{label}/limits route answers 503.
func NewServer(addr string, store *storage.Store, hub *Hub, containerLimits ContainerLimitsFunc) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", metrics.HealthHandler())
	r.Get("/readyz", metrics.ReadyHandler())
	r.Get("/livez", metrics.LivenessHandler())
	r.Handle("/metrics", metrics.Handler())

	r.Get("/stream", hub.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/samples/{kind}/{label}", samplesHandler(store))
		r.Get("/checkpoint", checkpointHandler(store))
		r.Get("/containers/{label}/limits", containerLimitsHandler(containerLimits))
	})

	return &Server{
		router: r,
		http:   &http.Server{Addr: addr, Handler: r},
	}
}

func containerLimitsHandler(lookup ContainerLimitsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lookup == nil {
			http.Error(w, "container limits lookup not configured", http.StatusServiceUnavailable)
			return
		}
		label := chi.URLParam(r, "label")
		res, ok := lookup(label)
		if !ok {
			http.Error(w, "container not found: "+label, http.StatusNotFound)
			return
		}
		writeJSON(w, res)
	}
}

// ListenAndServe blocks serving the control plane until the process is
// asked to stop or the listener errors.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func samplesHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "no snapshot database configured", http.StatusServiceUnavailable)
			return
		}
		kind := chi.URLParam(r, "kind")
		label := chi.URLParam(r, "label")

		if tailParam := r.URL.Query().Get("tail"); tailParam != "" {
			n, convErr := strconv.Atoi(tailParam)
			if convErr != nil || n <= 0 {
				http.Error(w, "tail must be a positive integer", http.StatusBadRequest)
				return
			}
			result, tailErr := store.Tail(kind, label, n)
			if tailErr != nil {
				http.Error(w, tailErr.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, result)
			return
		}

		result, err := store.Series(kind, label)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, result)
	}
}

func checkpointHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "no snapshot database configured", http.StatusServiceUnavailable)
			return
		}
		cp, ok, err := store.LatestCheckpoint()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "no checkpoint recorded yet", http.StatusNotFound)
			return
		}
		writeJSON(w, cp)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Vsim-Generated-At", time.Now().UTC().Format(time.RFC3339))
	_ = json.NewEncoder(w).Encode(v)
}
