package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
)

// LitterHandler exposes litter management and the overbooking auditor.
type LitterHandler struct {
	LitterRepo *repository.LitterRepo
	AnimalRepo *repository.AnimalRepo
	PuppyRepo  *repository.PuppyRepo
}

// NewLitterHandler constructs a LitterHandler.
func NewLitterHandler(litterRepo *repository.LitterRepo, animalRepo *repository.AnimalRepo,
	puppyRepo *repository.PuppyRepo) *LitterHandler {
	if litterRepo == nil || animalRepo == nil || puppyRepo == nil {
		panic("nil dependency passed to NewLitterHandler")
	}
	return &LitterHandler{LitterRepo: litterRepo, AnimalRepo: animalRepo, PuppyRepo: puppyRepo}
}

// Create handles POST /v1/litters.  Both parents must already be
// registered animals; the availability counters are seeded from the
// declared totals.
func (h *LitterHandler) Create(c echo.Context) error {
	var body struct {
		FatherID     uint64 `json:"father_id"`
		MotherID     uint64 `json:"mother_id"`
		Status       string `json:"status"`
		TotalMales   uint32 `json:"total_males"`
		TotalFemales uint32 `json:"total_females"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.FatherID == 0 || body.MotherID == 0 {
		return badRequest(c, "father_id and mother_id are required")
	}
	switch body.Status {
	case "", model.LitterPlanned, model.LitterPregnant, model.LitterBorn, model.LitterArchived:
	default:
		return badRequest(c, "invalid litter status")
	}
	ctx := c.Request().Context()
	if _, err := h.AnimalRepo.GetByID(ctx, body.FatherID); err != nil {
		return writeError(c, err)
	}
	if _, err := h.AnimalRepo.GetByID(ctx, body.MotherID); err != nil {
		return writeError(c, err)
	}
	litter := &model.Litter{
		FatherID:     body.FatherID,
		MotherID:     body.MotherID,
		Status:       body.Status,
		TotalMales:   body.TotalMales,
		TotalFemales: body.TotalFemales,
	}
	if err := h.LitterRepo.Create(ctx, litter); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": litter})
}

// List handles GET /v1/litters.
func (h *LitterHandler) List(c echo.Context) error {
	litters, err := h.LitterRepo.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": litters})
}

// Get handles GET /v1/litters/:id.
func (h *LitterHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid litter id")
	}
	litter, err := h.LitterRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": litter})
}

// Puppies handles GET /v1/litters/:id/puppies.
func (h *LitterHandler) Puppies(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid litter id")
	}
	ctx := c.Request().Context()
	if _, err := h.LitterRepo.GetByID(ctx, id); err != nil {
		return writeError(c, err)
	}
	puppies, err := h.PuppyRepo.ListByLitter(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": puppies})
}

// Overbooking handles GET /v1/litters/:id/overbooking, the diagnostic
// reconciliation of reservation counts against declared capacity.
func (h *LitterHandler) Overbooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid litter id")
	}
	report, err := h.LitterRepo.CheckOverbooking(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": report})
}
