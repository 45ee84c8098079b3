package agenda

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nidus/nidus/internal/domain/careevent"
	"github.com/nidus/nidus/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/cuidador/PacienteComMedicamentos", h.view(JoinMedications))
	api.GET("/cuidador/PacienteComConsulta", h.view(JoinAppointments))
	api.GET("/cuidador/PacienteComTarefas", h.view(JoinTasks))
	api.GET("/cuidador/PacienteComAgendaCompleta", h.view(JoinAll))
}

var totalKeys = map[careevent.Kind]string{
	careevent.KindMedication:  "totalMedicamentos",
	careevent.KindAppointment: "totalConsultas",
	careevent.KindTask:        "totalTarefas",
}

func optionalID(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Validationf("invalid %s", name)
	}
	return &id, nil
}

func (h *Handler) view(joins JoinSet) echo.HandlerFunc {
	return func(c echo.Context) error {
		var f Filter
		var err error
		if f.PatientID, err = optionalID(c, "paciente_id"); err != nil {
			return err
		}
		if f.CaregiverID, err = optionalID(c, "cuidador_id"); err != nil {
			return err
		}

		v, err := h.svc.BuildPatientView(c.Request().Context(), joins, f)
		if err != nil {
			return err
		}

		resp := map[string]interface{}{
			"success": true,
			"data":    v.Patients,
			"count":   len(v.Patients),
		}
		for kind, n := range v.Totals {
			resp[totalKeys[kind]] = n
		}
		return c.JSON(http.StatusOK, resp)
	}
}
