package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.  All
// status changes go through the lifecycle service; the repositories
// are used directly only for reads and for non-status field updates.
type ReservationHandler struct {
	Lifecycle       *service.Lifecycle
	ReservationRepo *repository.ReservationRepo
	LitterRepo      *repository.LitterRepo
	Redis           *redis.Client // nil disables the availability cache
	AvailabilityTTL time.Duration
}

// NewReservationHandler constructs a ReservationHandler.  The Redis
// client may be nil; everything else must be non-nil.
func NewReservationHandler(lc *service.Lifecycle, reservationRepo *repository.ReservationRepo,
	litterRepo *repository.LitterRepo, rdb *redis.Client, availabilityTTL time.Duration) *ReservationHandler {
	if lc == nil || reservationRepo == nil || litterRepo == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	if availabilityTTL <= 0 {
		availabilityTTL = 30 * time.Second
	}
	return &ReservationHandler{
		Lifecycle:       lc,
		ReservationRepo: reservationRepo,
		LitterRepo:      litterRepo,
		Redis:           rdb,
		AvailabilityTTL: availabilityTTL,
	}
}

// Create handles POST /v1/reservations.  Validation and slot blocking
// for directly-confirmed reservations happen in the lifecycle service;
// on a capacity failure nothing is persisted.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.CreateInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	detail, err := h.Lifecycle.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": detail})
}

// List handles GET /v1/reservations with optional status, litter_id,
// client_id and reservation_type filters.
func (h *ReservationHandler) List(c echo.Context) error {
	var f repository.ReservationFilter
	f.Status = c.QueryParam("status")
	if f.Status != "" && !model.ValidStatus(f.Status) {
		return badRequest(c, "invalid status filter")
	}
	f.Type = c.QueryParam("reservation_type")
	if v := c.QueryParam("litter_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid litter_id filter")
		}
		f.LitterID = id
	}
	if v := c.QueryParam("client_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid client_id filter")
		}
		f.ClientID = id
	}
	items, err := h.ReservationRepo.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id and returns the reservation
// with its client, litter, puppy, preferences and documents.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	detail, err := h.ReservationRepo.GetDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Update handles PUT /v1/reservations/:id, the generic field update
// path.  Status and status_history are owned by the state machine and
// explicitly rejected here.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var body struct {
		Status        *string    `json:"status"`
		StatusHistory *[]any     `json:"status_history"`
		DepositCents  *uint32    `json:"deposit_cents"`
		DepositPaid   *bool      `json:"deposit_paid"`
		ChoiceGender  *string    `json:"choice_gender"`
		ExpiresAt     *time.Time `json:"expires_at"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status != nil || body.StatusHistory != nil {
		return badRequest(c, "status cannot be changed here, use the status endpoint")
	}
	if body.ChoiceGender != nil && *body.ChoiceGender != model.GenderMale && *body.ChoiceGender != model.GenderFemale {
		return badRequest(c, "invalid choice_gender")
	}
	res, err := h.ReservationRepo.UpdateFields(c.Request().Context(), id, repository.FieldUpdate{
		DepositCents: body.DepositCents,
		DepositPaid:  body.DepositPaid,
		ChoiceGender: body.ChoiceGender,
		ExpiresAt:    body.ExpiresAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// UpdateStatus handles PUT /v1/reservations/:id/status and drives the
// lifecycle state machine.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return badRequest(c, "status is required")
	}
	detail, err := h.Lifecycle.Transition(c.Request().Context(), id, body.Status, body.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Delete handles DELETE /v1/reservations/:id.  Hard delete is an
// explicit admin operation; it performs no slot release.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	if err := h.ReservationRepo.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// availabilityPayload is the response of the availability endpoint and
// the value cached in Redis.
type availabilityPayload struct {
	Litter       *model.Litter            `json:"litter"`
	Report       *model.OverbookingReport `json:"report"`
	Reservations []model.Reservation      `json:"reservations"`
}

// Availability handles GET /v1/reservations/litter/:litterId/availability.
// It returns the ledger snapshot, the overbooking report and the
// reservations currently holding slots.  Snapshots are cached in Redis
// for a short TTL and invalidated by the lifecycle whenever the ledger
// changes.
func (h *ReservationHandler) Availability(c echo.Context) error {
	litterID, err := parseID(c, "litterId")
	if err != nil {
		return badRequest(c, "invalid litter id")
	}
	ctx := c.Request().Context()
	key := service.AvailabilityCacheKey(litterID)
	if h.Redis != nil {
		if cached, err := h.Redis.Get(ctx, key).Bytes(); err == nil {
			return c.JSONBlob(http.StatusOK, cached)
		}
	}
	litter, err := h.LitterRepo.GetByID(ctx, litterID)
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.LitterRepo.CheckOverbooking(ctx, litterID)
	if err != nil {
		return writeError(c, err)
	}
	reservations, err := h.ReservationRepo.ListActiveByLitter(ctx, litterID)
	if err != nil {
		return writeError(c, err)
	}
	payload := availabilityPayload{Litter: litter, Report: report, Reservations: reservations}
	if h.Redis != nil {
		if encoded, err := json.Marshal(payload); err == nil {
			if err := h.Redis.Set(ctx, key, encoded, h.AvailabilityTTL).Err(); err != nil {
				c.Logger().Warnf("availability cache write failed: %v", err)
			}
		}
	}
	return c.JSON(http.StatusOK, payload)
}

// Expiring handles GET /v1/reservations/expiring?hours=N (default 6),
// listing awaiting_deposit reservations whose deadline falls inside
// the window.
func (h *ReservationHandler) Expiring(c echo.Context) error {
	hours := 6
	if v := c.QueryParam("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return badRequest(c, "invalid hours parameter")
		}
		hours = n
	}
	items, err := h.ReservationRepo.ListExpiring(c.Request().Context(), time.Now().UTC(),
		time.Duration(hours)*time.Hour)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "hours": hours})
}

// CancelExpired handles POST /v1/reservations/expired/cancel, the
// sweeper trigger.  An external scheduler is expected to call this
// periodically.
func (h *ReservationHandler) CancelExpired(c echo.Context) error {
	summaries, err := h.Lifecycle.CancelExpired(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": len(summaries), "items": summaries})
}

// SetPreferences handles PUT /v1/reservations/:id/preferences,
// upserting the free-form preferences document.
func (h *ReservationHandler) SetPreferences(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var raw json.RawMessage
	if err := c.Bind(&raw); err != nil || len(raw) == 0 || !json.Valid(raw) {
		return badRequest(c, "body must be a JSON document")
	}
	ctx := c.Request().Context()
	if _, err := h.ReservationRepo.GetByID(ctx, id); err != nil {
		return writeError(c, err)
	}
	if err := h.ReservationRepo.SetPreferences(ctx, id, string(raw)); err != nil {
		return writeError(c, err)
	}
	prefs, err := h.ReservationRepo.GetPreferences(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": prefs})
}

// ListDocuments handles GET /v1/reservations/:id/documents.
func (h *ReservationHandler) ListDocuments(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	ctx := c.Request().Context()
	if _, err := h.ReservationRepo.GetByID(ctx, id); err != nil {
		return writeError(c, err)
	}
	docs, err := h.ReservationRepo.ListDocuments(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": docs})
}

// AddDocument handles POST /v1/reservations/:id/documents, attaching
// document metadata (the file itself lives in external storage).
func (h *ReservationHandler) AddDocument(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid reservation id")
	}
	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Name == "" || body.URL == "" {
		return badRequest(c, "name and url are required")
	}
	ctx := c.Request().Context()
	if _, err := h.ReservationRepo.GetByID(ctx, id); err != nil {
		return writeError(c, err)
	}
	doc := &model.ReservationDocument{ReservationID: id, Name: body.Name, URL: body.URL}
	if err := h.ReservationRepo.AddDocument(ctx, doc); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": doc})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
