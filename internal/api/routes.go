package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/curaious/folio/internal/api/controllers"
	"github.com/curaious/folio/internal/api/response"
	"github.com/curaious/folio/internal/perrors"
)

var tracePropagator = propagation.TraceContext{}

const adminPrefix = "/api/admin/"

func (s *Server) initRoutes() fasthttp.RequestHandler {
	r := router.New()

	r.GET("/api/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.Write([]byte("OK"))
	})

	controllers.RegisterCatalogRoutes(r, s.services)
	controllers.RegisterProjectRoutes(r, s.services)
	controllers.RegisterSessionRoutes(r, s.services)

	return s.withMiddlewares(r.Handler)
}

func (s *Server) withMiddlewares(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer recoverPanic(ctx)

		s.applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		requestID := string(ctx.Request.Header.Peek("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Response.Header.Set("X-Request-Id", requestID)

		method := string(ctx.Method())
		requestURI := string(ctx.RequestURI())
		l := slog.With(slog.String("method", method), slog.String("request_uri", requestURI), slog.String("request_id", requestID))
		l.Info("Started processing")

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(context.Background(), propagation.HeaderCarrier(h))
		ctx.SetUserValue(controllers.TraceCtxKey, traceCtx)

		if strings.HasPrefix(string(ctx.Path()), adminPrefix) && !s.authorize(ctx, traceCtx) {
			l.Info("Rejected unauthenticated admin request", slog.Duration("duration", time.Since(start)))
			return
		}

		next(ctx)

		l.Info("Finished processing", slog.Int("status", ctx.Response.StatusCode()), slog.Duration("duration", time.Since(start)))
	}
}

// authorize checks the bearer admin token and writes a 401 when it is
// missing or invalid.
func (s *Server) authorize(ctx *fasthttp.RequestCtx, stdCtx context.Context) bool {
	accessToken := strings.TrimPrefix(string(ctx.Request.Header.Peek("Authorization")), "Bearer ")
	if accessToken == "" {
		accessToken = string(ctx.Request.Header.Cookie("access_token"))
	}

	if s.services.Tokens == nil || accessToken == "" {
		response.NewResponse[any](stdCtx, "Admin token required", nil).
			WithError(perrors.NewErrUnauthorized("Admin token required", nil)).
			Write(ctx)
		return false
	}

	claims, err := s.services.Tokens.Verify(accessToken)
	if err != nil {
		response.NewResponse[any](stdCtx, "Invalid admin token", nil).
			WithError(perrors.NewErrUnauthorized("Invalid admin token", err)).
			Write(ctx)
		return false
	}

	// Store admin claims in context for downstream handlers
	ctx.SetUserValue(controllers.AdminClaimsKey, claims)
	return true
}

func (s *Server) applyCORS(ctx *fasthttp.RequestCtx) {
	origin := string(ctx.Request.Header.Peek("Origin"))
	if origin == "" || !(slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)) {
		return
	}

	headers := &ctx.Response.Header
	headers.Set("Access-Control-Allow-Origin", origin)
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Request-Id")
	headers.Set("Access-Control-Allow-Credentials", "true")
	headers.Add("Vary", "Origin")
}

func recoverPanic(ctx *fasthttp.RequestCtx) {
	if r := recover(); r != nil {
		slog.Error("Recovered from panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		ctx.ResetBody()
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}
