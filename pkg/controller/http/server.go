package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

// DefaultRequestTimeout bounds a single API request
const DefaultRequestTimeout = 60 * time.Second

// maxBodyBytes limits JSON request bodies
const maxBodyBytes = 4 << 20

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	requestTimeout time.Duration
}

type Options func(*Server)

func WithRequestTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		uc:             uc,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.requestTimeout > 0 {
		r.Use(middleware.Timeout(s.requestTimeout))
	}

	r.Get("/health", healthHandler(uc))

	r.Route("/api", func(r chi.Router) {
		r.Post("/doctor/validate", doctorValidateHandler(uc))
		r.Post("/patient/explain", patientExplainHandler(uc))

		r.Get("/guidelines", guidelineSourcesHandler(uc))
		r.Post("/guidelines/search", guidelineSearchHandler(uc))

		r.Post("/benchmark/run", benchmarkRunHandler(uc))
		r.Get("/benchmark/latest", benchmarkLatestHandler(uc))

		r.Post("/case/parse", caseParseHandler(uc))
		r.Get("/trials/search", trialsSearchHandler(uc))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
