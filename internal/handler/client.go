package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
)

// ClientHandler exposes the customer registry.
type ClientHandler struct {
	ClientRepo *repository.ClientRepo
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(clientRepo *repository.ClientRepo) *ClientHandler {
	if clientRepo == nil {
		panic("nil repository passed to NewClientHandler")
	}
	return &ClientHandler{ClientRepo: clientRepo}
}

// Create handles POST /v1/clients.
func (h *ClientHandler) Create(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if body.Name == "" {
		return badRequest(c, "name is required")
	}
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		return badRequest(c, "a valid email is required")
	}
	client := &model.Client{Name: body.Name, Email: body.Email, Phone: body.Phone}
	if err := h.ClientRepo.Create(c.Request().Context(), client); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": client})
}

// Get handles GET /v1/clients/:id.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid client id")
	}
	client, err := h.ClientRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": client})
}
