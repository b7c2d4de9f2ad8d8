package rest

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/logicalc/loancalc/internal/application/dto"
	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/pkg/observability"
)

const (
	calculationsPath = "/v1/calculations"
	companiesPath    = "/v1/companies/"
	messagesPath     = "/v1/messages"
)

// Endpoints holds the use cases served by the router.
type Endpoints struct {
	Calculate      *usecase.CalculateLoanUseCase
	GetCalculation *usecase.GetCalculationUseCase
	GetCompany     *usecase.GetCompanyUseCase
	SubmitMessage  *usecase.SubmitCompanyMessageUseCase
}

// Metrics exposes and records request metrics. Both fields are optional.
type Metrics struct {
	Handler  http.Handler
	Requests *observability.RPCMetrics
}

// Router serves the public calculator API, the health endpoints and optionally
// Prometheus metrics.
type Router struct {
	endpoints Endpoints
	health    *HealthHandler
	metrics   fasthttp.RequestHandler
	requests  *observability.RPCMetrics
	logger    *slog.Logger
}

// NewRouter wires the use cases to their routes.
func NewRouter(endpoints Endpoints, health *HealthHandler, metrics Metrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = NewHealthHandler(nil, logger)
	}
	r := &Router{
		endpoints: endpoints,
		health:    health,
		requests:  metrics.Requests,
		logger:    logger,
	}
	if metrics.Handler != nil {
		r.metrics = fasthttpadaptor.NewFastHTTPHandler(metrics.Handler)
	}
	return r
}

// Handle dispatches one request.
func (r *Router) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	route := r.dispatch(ctx)
	if r.requests != nil && route != "" {
		r.requests.Record(ctx, string(ctx.Method())+" "+route, strconv.Itoa(ctx.Response.StatusCode()), time.Since(start))
	}
}

// dispatch serves ctx and returns the matched route pattern, or "" for
// health checks and unknown paths.
func (r *Router) dispatch(ctx *fasthttp.RequestCtx) string {
	path := string(ctx.Path())

	switch {
	case path == "/healthz":
		r.only(ctx, fasthttp.MethodGet, r.health.liveness)
	case path == "/readyz":
		r.only(ctx, fasthttp.MethodGet, r.health.readiness)
	case path == "/metrics" && r.metrics != nil:
		r.only(ctx, fasthttp.MethodGet, r.metrics)
	case path == calculationsPath:
		r.only(ctx, fasthttp.MethodPost, r.handleCalculate)
		return calculationsPath
	case strings.HasPrefix(path, calculationsPath+"/"):
		id := strings.TrimPrefix(path, calculationsPath+"/")
		r.only(ctx, fasthttp.MethodGet, func(ctx *fasthttp.RequestCtx) { r.handleGetCalculation(ctx, id) })
		return calculationsPath + "/{id}"
	case strings.HasPrefix(path, companiesPath):
		slug := strings.TrimPrefix(path, companiesPath)
		r.only(ctx, fasthttp.MethodGet, func(ctx *fasthttp.RequestCtx) { r.handleGetCompany(ctx, slug) })
		return companiesPath + "{slug}"
	case path == messagesPath:
		r.only(ctx, fasthttp.MethodPost, r.handleSubmitMessage)
		return messagesPath
	default:
		writeMessage(ctx, fasthttp.StatusNotFound, "route not found")
	}
	return ""
}

func (r *Router) only(ctx *fasthttp.RequestCtx, method string, next fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, method)
		writeMessage(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	next(ctx)
}

func (r *Router) handleCalculate(ctx *fasthttp.RequestCtx) {
	var req dto.CalculateLoanRequest
	if !decodeBody(ctx, &req) {
		return
	}
	resp, err := r.endpoints.Calculate.Execute(ctx, req)
	if err != nil {
		writeError(ctx, err, r.logger)
		return
	}
	ctx.Response.Header.Set(fasthttp.HeaderLocation, calculationsPath+"/"+resp.ID)
	writeJSON(ctx, fasthttp.StatusCreated, resp)
}

func (r *Router) handleGetCalculation(ctx *fasthttp.RequestCtx, id string) {
	if id == "" || strings.Contains(id, "/") {
		writeMessage(ctx, fasthttp.StatusNotFound, "route not found")
		return
	}
	resp, err := r.endpoints.GetCalculation.Execute(ctx, dto.GetCalculationRequest{ID: id})
	if err != nil {
		writeError(ctx, err, r.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (r *Router) handleGetCompany(ctx *fasthttp.RequestCtx, slug string) {
	if slug == "" || strings.Contains(slug, "/") {
		writeMessage(ctx, fasthttp.StatusNotFound, "route not found")
		return
	}
	resp, err := r.endpoints.GetCompany.Execute(ctx, dto.GetCompanyRequest{Slug: slug})
	if err != nil {
		writeError(ctx, err, r.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (r *Router) handleSubmitMessage(ctx *fasthttp.RequestCtx) {
	var req dto.SubmitCompanyMessageRequest
	if !decodeBody(ctx, &req) {
		return
	}
	resp, err := r.endpoints.SubmitMessage.Execute(ctx, req)
	if err != nil {
		writeError(ctx, err, r.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, resp)
}

func decodeBody(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeMessage(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(`{"status":500,"message":"internal error"}`, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
