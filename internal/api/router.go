package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/St1cky1/tarefas-service/internal/api/handlers"
	"github.com/St1cky1/tarefas-service/internal/api/response"
	"github.com/St1cky1/tarefas-service/internal/api/router"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-pkgz/lgr"
)

// Pinger - хранилище для /health
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// NewTaskRouter регистрирует маршруты /tarefas в ручном роутере.
func NewTaskRouter(taskHandler *handlers.TaskHandler, logger lgr.L) *router.Router {
	r := router.New(logger)

	r.AddRoute(http.MethodGet, "/tarefas", "getAll", func(ctx context.Context, req router.Request) (*response.Envelope, error) {
		return taskHandler.GetAll(ctx)
	})
	r.AddRoute(http.MethodPost, "/tarefas", "create", func(ctx context.Context, req router.Request) (*response.Envelope, error) {
		return taskHandler.Create(ctx, req.Body)
	})
	r.AddRoute(http.MethodGet, "/tarefas/:id", "getOne", func(ctx context.Context, req router.Request) (*response.Envelope, error) {
		return taskHandler.GetOne(ctx, req.Arg(0))
	})
	r.AddRoute(http.MethodPut, "/tarefas/:id", "update", func(ctx context.Context, req router.Request) (*response.Envelope, error) {
		return taskHandler.Update(ctx, req.Arg(0), req.Body)
	})
	r.AddRoute(http.MethodDelete, "/tarefas/:id", "delete", func(ctx context.Context, req router.Request) (*response.Envelope, error) {
		return taskHandler.Delete(ctx, req.Arg(0))
	})

	return r
}

// NewRouter - внешний chi-мультиплексор: middleware, /health,
// всё остальное уходит в ручной роутер задач.
func NewRouter(taskRouter *router.Router, store Pinger, logger lgr.L) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  lgrPrinter{logger: logger},
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(store, logger))

	r.Handle("/*", taskRouter)
	r.NotFound(taskRouter.ServeHTTP)
	r.MethodNotAllowed(taskRouter.ServeHTTP)

	return r
}

func healthHandler(store Pinger, logger lgr.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		env := response.Success(http.StatusOK, map[string]string{"database": "up"})
		if err := store.Ping(ctx); err != nil {
			logger.Logf("WARN [health] store ping: %v", err)
			env = response.Error(http.StatusServiceUnavailable, "database down")
		}

		router.SetCORSHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(env.Code)
		if err := json.NewEncoder(w).Encode(env); err != nil {
			logger.Logf("WARN [health] write response: %v", err)
		}
	}
}

// lgrPrinter пропускает access-лог chi через lgr
type lgrPrinter struct {
	logger lgr.L
}

func (p lgrPrinter) Print(v ...interface{}) {
	p.logger.Logf("INFO [http] %s", fmt.Sprint(v...))
}
