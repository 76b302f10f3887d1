package operations

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/repos"
	"github.com/repokit/repokit/internal/server/handlers/repositories"
	"go.uber.org/zap"
)

type Handler struct {
	reposSvc *repos.Service

	logger *zap.Logger
}

func NewHandler(reposSvc *repos.Service, logger *zap.Logger) handler.Handler {
	return &Handler{
		reposSvc: reposSvc,
		logger:   logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/operations")

	r.Use(h.errorsHandler)
	r.Get("/:id", h.get)
}

//	@Summary	Get an operation
//	@Tags		operations
//	@Produce	json
//	@Param		id	path		string	true	"Operation ID"
//	@Success	200	{object}	repositories.OperationResponse
//	@Failure	404	{object}	fiberfx.ErrorResponse
//	@Router		/operations/{id} [get]
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	record, err := h.reposSvc.Operation(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get operation: %w", err)
	}

	return c.JSON(repositories.NewOperationResponse(record))
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, operations.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
