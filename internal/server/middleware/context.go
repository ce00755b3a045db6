package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/policy"
	"github.com/inquest-labs/inquest/backend/pkg/rag"
)

// App holds the long-lived collaborators shared by all requests.
type App struct {
	DBConn   *pgxpool.Pool
	Queue    *amqp091.Channel
	Pipeline *rag.Pipeline

	// Schema describes the case graph; CaseID is filled per request.
	Schema common.SchemaContext

	RequestTimeout time.Duration
}

// AppContext wraps the echo context with the app state and the
// gateway-authenticated requester.
type AppContext struct {
	echo.Context
	App  *App
	User *policy.User
}

// AppContextMiddleware attaches the app state to every request.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{
				Context: c,
				App:     app,
			})
		}
	}
}

// IdentityMiddleware reads the requester identity from the headers the
// upstream gateway installs after authenticating the session. Requests
// without an identity are rejected; token validation itself happens at the
// gateway, not here.
func IdentityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac := c.(*AppContext)

			userID := c.Request().Header.Get("X-User-Id")
			tenantID := c.Request().Header.Get("X-Tenant-Id")
			if userID == "" || tenantID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			}

			clearance, _ := strconv.Atoi(c.Request().Header.Get("X-Clearance"))

			var permissions []string
			if raw := c.Request().Header.Get("X-Permissions"); raw != "" {
				for _, p := range strings.Split(raw, ",") {
					if p = strings.TrimSpace(p); p != "" {
						permissions = append(permissions, p)
					}
				}
			}

			ac.User = &policy.User{
				ID:          userID,
				TenantID:    tenantID,
				Role:        c.Request().Header.Get("X-User-Role"),
				Clearance:   clearance,
				Permissions: permissions,
			}

			return next(ac)
		}
	}
}
