package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
)

// maxAncestorDepth caps the lineage recursion.  A depth of d resolves
// at most 2^d - 1 animals, so the cap keeps a single request from
// flooding the database with point lookups.
const maxAncestorDepth = 10

// AnimalHandler exposes the breeding animal registry and the lineage
// fetch.
type AnimalHandler struct {
	AnimalRepo *repository.AnimalRepo
}

// NewAnimalHandler constructs an AnimalHandler.
func NewAnimalHandler(animalRepo *repository.AnimalRepo) *AnimalHandler {
	if animalRepo == nil {
		panic("nil repository passed to NewAnimalHandler")
	}
	return &AnimalHandler{AnimalRepo: animalRepo}
}

// Create handles POST /v1/animals.  Parent references are optional but
// must point at registered animals when present.
func (h *AnimalHandler) Create(c echo.Context) error {
	var body struct {
		Name      string     `json:"name"`
		Breed     string     `json:"breed"`
		Sex       string     `json:"sex"`
		BirthDate *time.Time `json:"birth_date"`
		FatherID  *uint64    `json:"father_id"`
		MotherID  *uint64    `json:"mother_id"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Name == "" {
		return badRequest(c, "name is required")
	}
	if body.Sex != model.GenderMale && body.Sex != model.GenderFemale {
		return badRequest(c, "sex must be male or female")
	}
	ctx := c.Request().Context()
	if body.FatherID != nil {
		if _, err := h.AnimalRepo.GetByID(ctx, *body.FatherID); err != nil {
			return writeError(c, err)
		}
	}
	if body.MotherID != nil {
		if _, err := h.AnimalRepo.GetByID(ctx, *body.MotherID); err != nil {
			return writeError(c, err)
		}
	}
	animal := &model.Animal{
		Name:      body.Name,
		Breed:     body.Breed,
		Sex:       body.Sex,
		BirthDate: body.BirthDate,
		FatherID:  body.FatherID,
		MotherID:  body.MotherID,
	}
	if err := h.AnimalRepo.Create(ctx, animal); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": animal})
}

// Get handles GET /v1/animals/:id.
func (h *AnimalHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid animal id")
	}
	animal, err := h.AnimalRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": animal})
}

// Ancestors handles GET /v1/animals/:id/ancestors?depth=N (default 4).
// The response is the lineage tree rooted at the animal itself.
func (h *AnimalHandler) Ancestors(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid animal id")
	}
	depth := 4
	if v := c.QueryParam("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAncestorDepth {
			return badRequest(c, "depth must be between 1 and "+strconv.Itoa(maxAncestorDepth))
		}
		depth = n
	}
	tree, err := h.AnimalRepo.Ancestors(c.Request().Context(), id, depth)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": tree, "depth": depth})
}
