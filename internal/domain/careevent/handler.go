package careevent

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nidus/nidus/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/cuidador/MedicamentoPaciente", h.CreateMedication)
	api.POST("/medicamentos", h.CreateMedicationByPatientName)
	api.POST("/cuidador/ConsultasPaciente", h.CreateAppointment)
	api.POST("/cuidador/PacienteConsulta1", h.CreateAppointment)
	api.POST("/cuidador/PacienteTarefa", h.CreateTask)

	api.PUT("/medicamento/:id/status", h.UpdateStatus(KindMedication))
	api.PUT("/consulta/:id/status", h.UpdateStatus(KindAppointment))
	api.PUT("/tarefa/:id/status", h.UpdateStatus(KindTask))

	api.GET("/eventos/:kind", h.List)
	api.GET("/eventos/:kind/:id", h.Get)
}

func bindError(err error) error {
	return apperr.Validationf("invalid request body: %v", err)
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}

func (h *Handler) created(c echo.Context, e *Event, message string) error {
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":          e.ID,
		"message":     message,
		"agendamento": e.Projection(h.svc.Now()),
	})
}

func (h *Handler) CreateMedication(c echo.Context) error {
	var in MedicationInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	e, err := h.svc.CreateMedication(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.created(c, e, "medication scheduled")
}

func (h *Handler) CreateMedicationByPatientName(c echo.Context) error {
	var in NamedMedicationInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	e, err := h.svc.CreateMedicationForPatientName(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.created(c, e, "medication scheduled")
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var in AppointmentInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	e, err := h.svc.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.created(c, e, "appointment scheduled")
}

func (h *Handler) CreateTask(c echo.Context) error {
	var in TaskInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	e, err := h.svc.CreateTask(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.created(c, e, "task scheduled")
}

func (h *Handler) UpdateStatus(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c.Param("id"), "id")
		if err != nil {
			return err
		}
		var in StatusInput
		if err := c.Bind(&in); err != nil {
			return bindError(err)
		}
		e, err := h.svc.UpdateStatus(c.Request().Context(), kind, id, in.Status)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": kind.String() + " status updated",
			"data":    e.Projection(h.svc.Now()),
		})
	}
}

func (h *Handler) List(c echo.Context) error {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return apperr.NotFoundf("%v", err)
	}

	var patientID *int64
	if raw := c.QueryParam("paciente_id"); raw != "" {
		id, err := parseID(raw, "paciente_id")
		if err != nil {
			return err
		}
		patientID = &id
	}

	events, err := h.svc.List(c.Request().Context(), kind, patientID)
	if err != nil {
		return err
	}

	now := h.svc.Now()
	data := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		data = append(data, e.Projection(now))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func (h *Handler) Get(c echo.Context) error {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return apperr.NotFoundf("%v", err)
	}
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), kind, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    e.Projection(h.svc.Now()),
	})
}
