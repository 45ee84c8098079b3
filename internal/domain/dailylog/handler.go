package dailylog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nidus/nidus/internal/platform/apperr"
	"github.com/nidus/nidus/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/registrosdiarios")
	g.POST("/novo", h.SaveActivities)
	g.POST("/sentimentos", h.SaveSentiment)
	g.POST("/sinais-clinicos", h.SaveVitals)
	g.GET("", h.List)
}

func respond(c echo.Context, res Result, what string) error {
	status, verb := http.StatusOK, "updated"
	if res.Inserted {
		status, verb = http.StatusCreated, "saved"
	}
	return c.JSON(status, map[string]interface{}{
		"success":     true,
		"message":     what + " " + verb,
		"registro_id": res.ID,
	})
}

func bindError(err error) error {
	return apperr.Validationf("invalid request body: %v", err)
}

func (h *Handler) SaveActivities(c echo.Context) error {
	var in ActivitiesInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	res, err := h.svc.SaveActivities(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, res, "daily log")
}

func (h *Handler) SaveSentiment(c echo.Context) error {
	var in SentimentInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	res, err := h.svc.SaveSentiment(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, res, "sentiment")
}

func (h *Handler) SaveVitals(c echo.Context) error {
	var in VitalsInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	res, err := h.svc.SaveVitals(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, res, "clinical signs")
}

func (h *Handler) List(c echo.Context) error {
	var patientID *int64
	if raw := c.QueryParam("paciente_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return apperr.Validationf("invalid paciente_id")
		}
		patientID = &id
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, len(items), total, p))
}
