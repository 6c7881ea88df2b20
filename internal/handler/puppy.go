package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
)

// PuppyHandler exposes individual puppies born in a litter.
type PuppyHandler struct {
	PuppyRepo  *repository.PuppyRepo
	LitterRepo *repository.LitterRepo
}

// NewPuppyHandler constructs a PuppyHandler.
func NewPuppyHandler(puppyRepo *repository.PuppyRepo, litterRepo *repository.LitterRepo) *PuppyHandler {
	if puppyRepo == nil || litterRepo == nil {
		panic("nil dependency passed to NewPuppyHandler")
	}
	return &PuppyHandler{PuppyRepo: puppyRepo, LitterRepo: litterRepo}
}

// Create handles POST /v1/puppies.  The litter must exist and the
// gender must be one of the two ledger buckets.
func (h *PuppyHandler) Create(c echo.Context) error {
	var body struct {
		LitterID uint64 `json:"litter_id"`
		Name     string `json:"name"`
		Gender   string `json:"gender"`
		Color    string `json:"color"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.LitterID == 0 {
		return badRequest(c, "litter_id is required")
	}
	if body.Gender != model.GenderMale && body.Gender != model.GenderFemale {
		return badRequest(c, "gender must be male or female")
	}
	ctx := c.Request().Context()
	if _, err := h.LitterRepo.GetByID(ctx, body.LitterID); err != nil {
		return writeError(c, err)
	}
	puppy := &model.Puppy{
		LitterID: body.LitterID,
		Name:     body.Name,
		Gender:   body.Gender,
		Color:    body.Color,
	}
	if err := h.PuppyRepo.Create(ctx, puppy); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": puppy})
}

// Get handles GET /v1/puppies/:id.
func (h *PuppyHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid puppy id")
	}
	puppy, err := h.PuppyRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": puppy})
}
