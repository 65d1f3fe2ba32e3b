package controllers

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/folio/internal/services"
	"github.com/curaious/folio/internal/services/session"
)

type SessionInfo struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterSessionRoutes lets admin clients check that their token is accepted.
func RegisterSessionRoutes(r *router.Router, _ *services.Services) {
	r.GET("/api/admin/session", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		info := SessionInfo{}
		if claims, ok := ctx.UserValue(AdminClaimsKey).(*session.AdminClaims); ok {
			info.Subject = claims.Subject
			if claims.ExpiresAt != nil {
				info.ExpiresAt = claims.ExpiresAt.Time
			}
		}

		writeOK(ctx, stdCtx, "Admin session is active", info)
	})
}
