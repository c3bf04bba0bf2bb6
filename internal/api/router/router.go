// Package router сопоставляет метод и путь запроса с зарегистрированными
// маршрутами вида /tarefas/:id и вызывает привязанное действие.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/St1cky1/tarefas-service/internal/api/response"
	"github.com/St1cky1/tarefas-service/internal/entity"
	"github.com/go-pkgz/lgr"
)

const (
	// MaxBodyBytes ограничивает тело запроса
	MaxBodyBytes = 1 << 20

	routeNotFoundMessage = "Endpoint não encontrado"
	badBodyMessage       = "Corpo da requisição inválido"
)

var paramSegment = regexp.MustCompile(`/:(\w+)`)

// Request - то, что получает действие: параметры пути в порядке их
// появления в шаблоне и сырое тело.
type Request struct {
	Params []string
	Names  []string
	Body   []byte
}

// Param ищет параметр по имени, "" если его нет.
func (r Request) Param(name string) string {
	for i, n := range r.Names {
		if n == name && i < len(r.Params) {
			return r.Params[i]
		}
	}
	return ""
}

// Arg возвращает i-й позиционный параметр, "" если его нет.
func (r Request) Arg(i int) string {
	if i < 0 || i >= len(r.Params) {
		return ""
	}
	return r.Params[i]
}

type Action func(ctx context.Context, req Request) (*response.Envelope, error)

type Route struct {
	Method  string
	Pattern string
	Name    string
	action  Action
	re      *regexp.Regexp
	names   []string
}

type Router struct {
	routes []*Route
	logger lgr.L
}

func New(logger lgr.L) *Router {
	if logger == nil {
		logger = lgr.NoOp
	}
	return &Router{logger: logger}
}

// AddRoute регистрирует маршрут. Побеждает первый подходящий по порядку.
func (r *Router) AddRoute(method, pattern, name string, action Action) {
	re, names := compilePattern(pattern)
	r.routes = append(r.routes, &Route{
		Method:  strings.ToUpper(method),
		Pattern: pattern,
		Name:    name,
		action:  action,
		re:      re,
		names:   names,
	})
}

// compilePattern превращает каждый сегмент /:name в /([\w-]+),
// литеральные части экранируются.
func compilePattern(pattern string) (*regexp.Regexp, []string) {
	var (
		sb    strings.Builder
		names []string
		last  int
	)
	sb.WriteString("^")
	for _, loc := range paramSegment.FindAllStringSubmatchIndex(pattern, -1) {
		sb.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		sb.WriteString(`/([\w-]+)`)
		names = append(names, pattern[loc[2]:loc[3]])
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(pattern[last:]))
	sb.WriteString("$")
	return regexp.MustCompile(sb.String()), names
}

// Match возвращает первый маршрут для method+path и параметры по порядку.
func (r *Router) Match(method, path string) (*Route, []string, bool) {
	for _, route := range r.routes {
		if route.Method != method {
			continue
		}
		if path == route.Pattern {
			return route, nil, true
		}
		if m := route.re.FindStringSubmatch(path); m != nil {
			return route, m[1:], true
		}
	}
	return nil, nil, false
}

// Resolve выполняет действие и всегда возвращает конверт.
// OPTIONS сюда не доходит, его обрабатывает ServeHTTP.
func (r *Router) Resolve(ctx context.Context, method, path string, body []byte) (env *response.Envelope) {
	route, params, ok := r.Match(method, path)
	if !ok {
		return response.Fail(http.StatusNotFound, routeNotFoundMessage)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Logf("ERROR [router][%s] panic: %v", route.Name, rec)
			env = response.InternalError()
		}
	}()

	result, err := route.action(ctx, Request{Params: params, Names: route.names, Body: body})
	if err != nil {
		return r.errorEnvelope(route, err)
	}
	if result == nil {
		r.logger.Logf("ERROR [router][%s] action returned nil envelope", route.Name)
		return response.InternalError()
	}
	return result
}

// errorEnvelope: NotFound -> 404 fail, Validation -> 400 fail, остальное -> 500 error.
func (r *Router) errorEnvelope(route *Route, err error) *response.Envelope {
	switch entity.KindOf(err) {
	case entity.KindNotFound:
		return response.Fail(http.StatusNotFound, entity.MessageOf(err))
	case entity.KindValidation:
		return response.Fail(http.StatusBadRequest, entity.MessageOf(err))
	default:
		r.logger.Logf("ERROR [router][%s] %v", route.Name, err)
		return response.InternalError()
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodOptions {
		r.write(w, nil, http.StatusNoContent)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			r.logger.Logf("WARN [router] read body: %v", err)
		}
		env := response.Fail(http.StatusBadRequest, badBodyMessage)
		r.write(w, env, env.Code)
		return
	}

	env := r.Resolve(req.Context(), req.Method, req.URL.Path, body)
	r.write(w, env, env.Code)
}

func (r *Router) write(w http.ResponseWriter, env *response.Envelope, code int) {
	SetCORSHeaders(w.Header())
	if !env.HasBody() {
		w.WriteHeader(code)
		return
	}

	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Logf("ERROR [router] encode envelope: %v", err)
		code = http.StatusInternalServerError
		payload, _ = json.Marshal(response.InternalError())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(payload); err != nil {
		r.logger.Logf("WARN [router] write response: %v", err)
	}
}

// SetCORSHeaders выставляет CORS на любой ответ.
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
}

// Routes - список зарегистрированных маршрутов для логов при старте.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, fmt.Sprintf("%s %s -> %s", route.Method, route.Pattern, route.Name))
	}
	return out
}
