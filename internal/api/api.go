package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	healthTimeout   = 3 * time.Second
	readTimeout     = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Pinger reports whether the chat store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Registry is where the dispatcher metrics live.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

type mwLog struct{ *zap.Logger }

func (m mwLog) Print(v ...interface{}) { m.Sugar().Debug(v...) }

func (m mwLog) Println(v ...interface{}) { m.Sugar().Debugln(v...) }

// KeepAliveAPI answers hosting platform probes and exposes health and metrics.
type KeepAliveAPI struct {
	srv *http.Server
	db  Pinger
	reg Registry
	zap *zap.Logger
}

func NewKeepAliveAPI(bind string, db Pinger, reg Registry, logger *zap.Logger) *KeepAliveAPI {
	a := &KeepAliveAPI{db: db, reg: reg, zap: logger.Named("api")}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  mwLog{a.zap},
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Mount("/", a.routes())
	a.srv = &http.Server{Addr: bind, Handler: r, ReadHeaderTimeout: readTimeout, ReadTimeout: readTimeout}
	return a
}

func (a *KeepAliveAPI) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", a.index)
	r.Get("/healthz", a.health)
	r.Handle("/metrics", promhttp.InstrumentMetricHandler(
		a.reg,
		promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{ErrorLog: mwLog{a.zap}}),
	))
	return r
}

// Handler exposes the router for tests.
func (a *KeepAliveAPI) Handler() http.Handler {
	return a.srv.Handler
}

func (a *KeepAliveAPI) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Bot is running"))
}

func (a *KeepAliveAPI) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		a.zap.Error("Healthcheck failed: chat store unreachable",
			zap.Error(err), zap.String("request-id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "chat store unreachable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (a *KeepAliveAPI) Start() error {
	l, listenErr := net.Listen("tcp", a.srv.Addr)
	if listenErr != nil {
		return errors.Errorf("Failed to start keep-alive API at '%s': %v", a.srv.Addr, listenErr)
	}
	go func() {
		err := a.srv.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.zap.Error("Failed to serve keep-alive API", zap.String("address", a.srv.Addr), zap.Error(err))
		}
	}()
	a.zap.Info("keep-alive API started", zap.String("address", a.srv.Addr))
	return nil
}

func (a *KeepAliveAPI) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.srv.Shutdown(ctx); err != nil {
		a.zap.Error("Failed to shutdown keep-alive API", zap.Error(err))
	}
}
