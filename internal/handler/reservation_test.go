package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardoazt/kennel-gestor-sub001/internal/database"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/model"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/repository"
	"github.com/ricardoazt/kennel-gestor-sub001/internal/service"
)

type testAPI struct {
	echo         *echo.Echo
	reservations *ReservationHandler
	animals      *AnimalHandler
	litterID     uint64
	clientID     uint64
}

// newTestAPI wires the handlers against an in-memory database seeded
// with one client and one litter (1 male, 1 female).
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := database.NewTestDB(t)
	ctx := context.Background()

	animalRepo := repository.NewAnimalRepo(db)
	sire := &model.Animal{Name: "Rex", Sex: model.GenderMale}
	dam := &model.Animal{Name: "Luna", Sex: model.GenderFemale}
	require.NoError(t, animalRepo.Create(ctx, sire))
	require.NoError(t, animalRepo.Create(ctx, dam))

	litterRepo := repository.NewLitterRepo(db)
	litter := &model.Litter{FatherID: sire.ID, MotherID: dam.ID, TotalMales: 1, TotalFemales: 1}
	require.NoError(t, litterRepo.Create(ctx, litter))

	clientRepo := repository.NewClientRepo(db)
	client := &model.Client{Name: "Maria Santos", Email: "maria@example.com"}
	require.NoError(t, clientRepo.Create(ctx, client))

	reservationRepo := repository.NewReservationRepo(db)
	lifecycle := service.NewLifecycle(db, reservationRepo, litterRepo, clientRepo,
		repository.NewPuppyRepo(db), nil, 24*time.Hour)

	return &testAPI{
		echo:         echo.New(),
		reservations: NewReservationHandler(lifecycle, reservationRepo, litterRepo, nil, time.Second),
		animals:      NewAnimalHandler(animalRepo),
		litterID:     litter.ID,
		clientID:     client.ID,
	}
}

func (a *testAPI) request(t *testing.T, method, path, body string, h echo.HandlerFunc,
	paramNames []string, paramValues []string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := a.echo.NewContext(req, rec)
	c.SetPath(path)
	c.SetParamNames(paramNames...)
	c.SetParamValues(paramValues...)
	require.NoError(t, h(c))
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

func (a *testAPI) createBody(status string) string {
	b, _ := json.Marshal(map[string]any{
		"client_id":        a.clientID,
		"reservation_type": model.TypeLitterChoice,
		"litter_id":        a.litterID,
		"choice_gender":    model.GenderMale,
		"deposit_cents":    50000,
		"status":           status,
	})
	return string(b)
}

func TestCreateReservationEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodPost, "/v1/reservations", api.createBody(""),
		api.reservations.Create, nil, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Item struct {
			ID     uint64 `json:"id"`
			Status string `json:"status"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body.Item.ID)
	assert.Equal(t, model.StatusAwaitingDeposit, body.Item.Status)
}

func TestCreateReservationValidationAndCapacity(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodPost, "/v1/reservations",
		`{"reservation_type":"litter_choice"}`, api.reservations.Create, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))

	// One male slot: the first direct confirmation takes it, the second
	// must bounce with a capacity conflict.
	rec = api.request(t, http.MethodPost, "/v1/reservations", api.createBody(model.StatusConfirmed),
		api.reservations.Create, nil, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = api.request(t, http.MethodPost, "/v1/reservations", api.createBody(model.StatusConfirmed),
		api.reservations.Create, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "capacity_exceeded", errorCode(t, rec))
}

func TestGetReservationNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodGet, "/v1/reservations/:id", "",
		api.reservations.Get, []string{"id"}, []string{"404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = api.request(t, http.MethodGet, "/v1/reservations/:id", "",
		api.reservations.Get, []string{"id"}, []string{"abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRejectsStatusChanges(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodPost, "/v1/reservations", api.createBody(""),
		api.reservations.Create, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Item struct {
			ID uint64 `json:"id"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Item.ID

	rec = api.request(t, http.MethodPut, "/v1/reservations/:id", `{"status":"confirmed"}`,
		api.reservations.Update, []string{"id"}, []string{jsonID(id)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))

	rec = api.request(t, http.MethodPut, "/v1/reservations/:id", `{"deposit_paid":true}`,
		api.reservations.Update, []string{"id"}, []string{jsonID(id)})
	assert.Equal(t, http.StatusOK, rec.Code)

	// The state machine path still works and rejects bad targets.
	rec = api.request(t, http.MethodPut, "/v1/reservations/:id/status", `{"status":"active"}`,
		api.reservations.UpdateStatus, []string{"id"}, []string{jsonID(id)})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, rec))

	rec = api.request(t, http.MethodPut, "/v1/reservations/:id/status", `{"status":"confirmed"}`,
		api.reservations.UpdateStatus, []string{"id"}, []string{jsonID(id)})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodPost, "/v1/reservations", api.createBody(model.StatusConfirmed),
		api.reservations.Create, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.request(t, http.MethodGet, "/v1/reservations/litter/:litterId/availability", "",
		api.reservations.Availability, []string{"litterId"}, []string{jsonID(api.litterID)})
	assert.Equal(t, http.StatusOK, rec.Code)

	var body availabilityPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Litter)
	assert.Equal(t, uint32(0), body.Litter.AvailableMales)
	require.NotNil(t, body.Report)
	assert.Equal(t, uint32(1), body.Report.Males.Reserved)
	assert.Len(t, body.Reservations, 1)
}

func TestAncestorsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	// Animal 1 is the seeded sire with no recorded parents.
	rec := api.request(t, http.MethodGet, "/v1/animals/:id/ancestors", "",
		api.animals.Ancestors, []string{"id"}, []string{"1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.request(t, http.MethodGet, "/v1/animals/:id/ancestors?depth=99", "",
		api.animals.Ancestors, []string{"id"}, []string{"1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonID(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
