package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/service"
)

// writeError maps service and repository errors onto HTTP responses.
// Every error response carries both a human-readable message and a
// stable machine-readable code, so API consumers never have to
// pattern-match message strings to tell failure kinds apart.
func writeError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg, "code": "validation_error"})
	}
	var te *service.TransitionError
	if errors.As(err, &te) {
		return c.JSON(http.StatusConflict, echo.Map{"error": te.Error(), "code": "invalid_transition"})
	}
	var ce *repository.CapacityError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, echo.Map{"error": ce.Error(), "code": "capacity_exceeded"})
	}
	switch {
	case errors.Is(err, repository.ErrAnimalNotFound),
		errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrLitterNotFound),
		errors.Is(err, repository.ErrPuppyNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, repository.ErrPuppyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "conflict"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
}

// badRequest writes a validation failure without going through the
// service layer.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "validation_error"})
}
