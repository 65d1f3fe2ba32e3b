package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/folio/internal/perrors"
	"github.com/curaious/folio/internal/services"
	"github.com/curaious/folio/internal/services/project"
	"github.com/curaious/folio/internal/services/project/editor"
)

const adminProjects = "/api/admin/projects"

const persistenceWarning = "Changes were applied but could not be saved; they may be lost on restart"

// ProjectRequest is the body of create and update calls. Updates replace
// every field.
type ProjectRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Technologies []string `json:"technologies"`
	LiveURL      string   `json:"liveUrl"`
	GithubURL    string   `json:"githubUrl"`
	Category     string   `json:"category"`
	Featured     bool     `json:"featured"`
}

// fill copies the request into the form, running technologies through the
// tag editor so blanks and duplicates are dropped.
func (req *ProjectRequest) fill(f *editor.Form) error {
	f.SetTitle(req.Title)
	f.SetDescription(req.Description)
	f.SetImage(req.Image)
	f.SetLiveURL(req.LiveURL)
	f.SetGithubURL(req.GithubURL)
	f.SetFeatured(req.Featured)

	if req.Category != "" {
		if err := f.SetCategory(project.Category(req.Category)); err != nil {
			return fmt.Errorf("%w: %q", err, req.Category)
		}
	}

	for _, tag := range f.Record().Technologies {
		f.RemoveTech(tag)
	}
	for _, tag := range req.Technologies {
		f.AddTech(tag)
	}

	return nil
}

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// List projects
	r.GET(adminProjects, func(ctx *fasthttp.RequestCtx) {
		writeOK(ctx, requestContext(ctx), "Projects retrieved successfully", svc.Projects.List())
	})

	r.GET(adminProjects+"/stats", func(ctx *fasthttp.RequestCtx) {
		writeOK(ctx, requestContext(ctx), "Project stats retrieved successfully", svc.Projects.Stats())
	})

	// Create project
	r.POST(adminProjects, func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body ProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		f := editor.New()
		if err := body.fill(f); err != nil {
			writeError(ctx, stdCtx, "Unknown category", perrors.NewErrInvalidRequest("Unknown category", err))
			return
		}

		c, err := f.Submit(stdCtx, svc.Projects)
		if err != nil && !errors.Is(err, project.ErrPersistenceUnavailable) {
			writeSubmitError(ctx, stdCtx, "Failed to create project", err)
			return
		}

		created := c[len(c)-1]
		if err != nil {
			writeWarning(ctx, stdCtx, "Project created", persistenceWarning, created)
			return
		}
		writeOK(ctx, stdCtx, "Project created successfully", created)
	})

	// Update project
	r.PUT(adminProjects+"/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body ProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		existing, err := svc.Projects.Get(id)
		if err != nil {
			writeError(ctx, stdCtx, "Project not found", perrors.NewErrNotFound("Project not found", err))
			return
		}

		f := editor.Edit(existing)
		if err := body.fill(f); err != nil {
			writeError(ctx, stdCtx, "Unknown category", perrors.NewErrInvalidRequest("Unknown category", err))
			return
		}

		c, err := f.Submit(stdCtx, svc.Projects)
		if err != nil && !errors.Is(err, project.ErrPersistenceUnavailable) {
			writeSubmitError(ctx, stdCtx, "Failed to update project", err)
			return
		}

		updated := c[c.Index(id)]
		if err != nil {
			writeWarning(ctx, stdCtx, "Project updated", persistenceWarning, updated)
			return
		}
		writeOK(ctx, stdCtx, "Project updated successfully", updated)
	})

	// Delete project
	r.DELETE(adminProjects+"/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		c, err := svc.Projects.Remove(stdCtx, id)
		if err != nil {
			if errors.Is(err, project.ErrPersistenceUnavailable) {
				writeWarning(ctx, stdCtx, "Project deleted", persistenceWarning, c)
				return
			}
			writeError(ctx, stdCtx, "Failed to delete project", perrors.NewErrInternalServerError("Failed to delete project", err))
			return
		}

		writeOK(ctx, stdCtx, "Project deleted successfully", c)
	})

	r.GET(adminProjects+"/export", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		data, err := svc.Projects.ExportSnapshot()
		if err != nil {
			writeError(ctx, stdCtx, "Failed to export projects", perrors.NewErrInternalServerError("Failed to export projects", err))
			return
		}

		ctx.Response.Header.Set("content-type", "application/json")
		ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, project.SnapshotFilename))
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBody(data)
	})

	// Import replaces every project; the body is the raw snapshot or a
	// multipart "file" field.
	r.POST(adminProjects+"/import", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		data, err := uploadedFile(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid upload", perrors.NewErrInvalidRequest("Invalid upload", err))
			return
		}
		if len(data) == 0 {
			writeError(ctx, stdCtx, "No file provided", perrors.NewErrInvalidRequest("No file provided", errors.New("import file is empty")))
			return
		}

		c, err := svc.Projects.ImportSnapshot(stdCtx, data)
		if err != nil {
			switch {
			case errors.Is(err, project.ErrMalformedImport):
				writeError(ctx, stdCtx, "Invalid file format", perrors.NewErrInvalidRequest("Invalid file format", err))
			case errors.Is(err, project.ErrPersistenceUnavailable):
				writeWarning(ctx, stdCtx, "Projects imported", persistenceWarning, c)
			default:
				writeError(ctx, stdCtx, "Failed to import projects", perrors.NewErrInternalServerError("Failed to import projects", err))
			}
			return
		}

		writeOK(ctx, stdCtx, "Projects imported successfully", c)
	})
}

func writeSubmitError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(ctx, stdCtx, "Validation failed", perrors.NewErrInvalidRequest("Validation failed", err, map[string]interface{}{"fields": verr.Fields, "reasons": verr.Reasons}))
	case errors.Is(err, project.ErrInvalidRecord), errors.Is(err, project.ErrUnknownCategory):
		writeError(ctx, stdCtx, "Invalid project", perrors.NewErrInvalidRequest("Invalid project", err))
	case errors.Is(err, project.ErrProjectNotFound):
		writeError(ctx, stdCtx, "Project not found", perrors.NewErrNotFound("Project not found", err))
	default:
		writeError(ctx, stdCtx, message, perrors.NewErrInternalServerError(message, err))
	}
}
