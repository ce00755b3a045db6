package routes

import (
	"context"
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/inquest-labs/inquest/backend/internal/server/middleware"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
	"github.com/inquest-labs/inquest/backend/pkg/rag"
)

// PostAnswerHandler answers a natural-language question about a case. The
// pipeline owns all policy, validation, and citation decisions; this handler
// only binds the request and maps the pipeline's error contract onto HTTP.
func PostAnswerHandler(c echo.Context) error {
	type postAnswerParams struct {
		CaseID   string `param:"id" validate:"required"`
		Question string `json:"question" validate:"required,min=3,max=2000"`
	}

	params := new(postAnswerParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}

	ac := c.(*middleware.AppContext)
	user := ac.User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
	}

	schema := ac.App.Schema
	schema.CaseID = params.CaseID
	schema.TenantID = user.TenantID

	ctx := c.Request().Context()
	if ac.App.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ac.App.RequestTimeout)
		defer cancel()
	}

	resp, err := ac.App.Pipeline.Answer(ctx, params.Question, schema, *user)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrPolicyViolation):
			return c.JSON(http.StatusForbidden, map[string]string{"message": rag.AccessDeniedText})
		case errors.Is(err, rag.ErrQueryGeneration):
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": rag.ErrQueryGeneration.Error()})
		default:
			logger.Error("Answer pipeline failed", "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, resp)
}
