package controllers

import (
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/folio/internal/perrors"
	"github.com/curaious/folio/internal/services"
	"github.com/curaious/folio/internal/services/project"
)

// RegisterCatalogRoutes serves the public, read-only project catalog.
func RegisterCatalogRoutes(r *router.Router, svc *services.Services) {
	// List projects, filtered by ?category= and ?search=
	r.GET("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		category, err := project.ParseCategoryFilter(string(ctx.QueryArgs().Peek("category")))
		if err != nil {
			writeError(ctx, stdCtx, "Unknown category", perrors.NewErrInvalidRequest("Unknown category", err))
			return
		}

		filter := project.Filter{
			Category: category,
			Search:   string(ctx.QueryArgs().Peek("search")),
		}

		writeOK(ctx, stdCtx, "Projects retrieved successfully", svc.Catalog.View(stdCtx, filter))
	})

	r.GET("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		p, err := svc.Catalog.Get(stdCtx, id)
		if err != nil {
			switch {
			case errors.Is(err, project.ErrProjectNotFound):
				writeError(ctx, stdCtx, "Project not found", perrors.NewErrNotFound("Project not found", err))
			default:
				writeError(ctx, stdCtx, "Failed to get project", perrors.NewErrInternalServerError("Failed to get project", err))
			}
			return
		}

		writeOK(ctx, stdCtx, "Project retrieved successfully", p)
	})
}
