package middleware

import (
	"strings"

	"github.com/siteplane/siteplane-go-pkg/errors"
	"github.com/siteplane/siteplane-go-pkg/logger"
	"github.com/siteplane/siteplane-go-pkg/repository"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Tenant Resolution
 * ========================================================================
 * Resolves the tenant (site) for a request once, at the edge, and puts
 * it on the request context. Everything below the handler reads it from
 * there; no handler passes tenant ids around by hand.
 *
 * Resolution order:
 *   1. a custom Resolver, when configured (e.g. by Host header lookup);
 *   2. the site id header (default X-Site-ID).
 * ======================================================================== */

// HeaderSiteID is the default header carrying the site id.
const HeaderSiteID = "X-Site-ID"

const tenantLocalKey = "siteplane_tenant_id"

// TenantConfig configures the tenant middleware.
type TenantConfig struct {
	// Header overrides the site id header.
	Header string
	// Optional lets requests without a resolvable tenant pass through,
	// for mixed routers that also serve global endpoints. Handlers on
	// such routes must not touch tenant-scoped repositories.
	Optional bool
	// Resolver resolves the tenant id from the request before the
	// header is consulted. Return empty to fall through.
	Resolver func(c fiber.Ctx) (string, error)
}

// Tenant returns the tenant resolution middleware.
func Tenant(config ...TenantConfig) fiber.Handler {
	cfg := TenantConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	header := cfg.Header
	if header == "" {
		header = HeaderSiteID
	}

	return func(c fiber.Ctx) error {
		var tenantID string
		if cfg.Resolver != nil {
			id, err := cfg.Resolver(c)
			if err != nil {
				return err
			}
			tenantID = id
		}
		if tenantID == "" {
			tenantID = strings.TrimSpace(c.Get(header))
		}

		if tenantID == "" {
			if cfg.Optional {
				return c.Next()
			}
			statusCode, body := errors.ToHTTPResponse(
				errors.NewUnauthenticated("no site id on request"))
			return c.Status(statusCode).JSON(body)
		}

		c.Locals(tenantLocalKey, tenantID)
		ctx := repository.WithTenant(c.Context(), tenantID)
		ctx = logger.ContextWithTenantField(ctx, tenantID)
		c.SetContext(ctx)
		return c.Next()
	}
}

// TenantFromFiber reads the tenant id resolved for this request.
func TenantFromFiber(c fiber.Ctx) (string, bool) {
	id, ok := c.Locals(tenantLocalKey).(string)
	return id, ok && id != ""
}
