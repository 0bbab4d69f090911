package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/runningwild/kneedle/pkg/analyze"
	"github.com/runningwild/kneedle/pkg/cache"
	"github.com/runningwild/kneedle/pkg/config"
	"github.com/runningwild/kneedle/pkg/knee"
)

// LocateRequest is the body of POST /locate.
type LocateRequest struct {
	X         []float64        `json:"x"`
	Y         []float64        `json:"y"`
	Detection config.Detection `json:"detection"`
	// Auto infers curve and direction, ignoring the ones in Detection.
	Auto bool `json:"auto,omitempty"`
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type ClassifyResponse struct {
	Curve      string  `json:"curve"`
	Direction  string  `json:"direction"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	Bow        float64 `json:"bow"`
	Confidence float64 `json:"confidence"`
}

// CacheHeader reports "hit" or "miss" on /locate responses when a cache is set.
const CacheHeader = "X-Kneedle-Cache"

type metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	kneesSeen *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kneedle_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kneedle_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		kneesSeen: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kneedle_locate_results_total",
				Help: "Locate results by whether a knee was found",
			},
			[]string{"found"},
		),
	}
}

type Server struct {
	router  *mux.Router
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics
}

// NewServer builds the agent. c may be nil to disable caching.
func NewServer(c cache.Cache, ttl time.Duration) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		router:  mux.NewRouter(),
		cache:   c,
		ttl:     ttl,
		metrics: newMetrics(reg),
	}
	s.router.Use(s.instrument)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/locate", s.handleLocate).Methods(http.MethodPost)
	s.router.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	s.router.Path("/metrics").Handler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Kneedle agent listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down agent")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	req := LocateRequest{Detection: config.DefaultDetection()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid body: %v", err), http.StatusBadRequest)
		return
	}
	cfg, err := req.Detection.KneeConfig()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := ""
	if s.cache != nil {
		// Re-encoding gives the same key for requests that differ only in
		// formatting or omitted defaults.
		canonical, err := json.Marshal(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		key = cache.Key(canonical)
		cached, ok, err := s.cache.Get(r.Context(), key)
		if err != nil {
			log.WithError(err).Warn("Cache read failed")
		}
		if ok {
			w.Header().Set(CacheHeader, "hit")
			s.metrics.kneesSeen.WithLabelValues(strconv.FormatBool(cached.Knee != nil)).Inc()
			writeJSON(w, *cached)
			return
		}
		w.Header().Set(CacheHeader, "miss")
	}

	var l *knee.Locator
	if req.Auto {
		l, _, err = analyze.LocateAuto(req.X, req.Y, cfg)
	} else {
		l, err = knee.New(req.X, req.Y, cfg)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := l.Result()

	if s.cache != nil {
		if err := s.cache.Set(r.Context(), key, res, s.ttl); err != nil {
			log.WithError(err).Warn("Cache write failed")
		}
	}
	s.metrics.kneesSeen.WithLabelValues(strconv.FormatBool(l.Found())).Inc()
	log.WithFields(log.Fields{
		"points": len(req.X),
		"curve":  res.Curve,
		"found":  l.Found(),
	}).Debug("Located")
	writeJSON(w, res)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid body: %v", err), http.StatusBadRequest)
		return
	}
	shape, err := analyze.ClassifyShape(req.X, req.Y)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, ClassifyResponse{
		Curve:      shape.Curve.String(),
		Direction:  shape.Direction.String(),
		Slope:      finite(shape.Slope),
		Intercept:  finite(shape.Intercept),
		Bow:        finite(shape.Bow),
		Confidence: shape.Confidence,
	})
}

// finite maps NaN and Inf, which JSON cannot carry, to 0. A curve with no
// spread in x has no regression line.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
