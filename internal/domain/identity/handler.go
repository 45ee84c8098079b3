package identity

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nidus/nidus/internal/platform/apperr"
)

type Handler struct {
	svc *Service
	// guard wraps the routes that check a password.
	guard []echo.MiddlewareFunc
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// WithGuard adds middleware to the login and password change routes.
func (h *Handler) WithGuard(m ...echo.MiddlewareFunc) *Handler {
	h.guard = append(h.guard, m...)
	return h
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/paciente/cadastrocompleto", h.RegisterPatient)
	api.POST("/cuidador/cadastro", h.RegisterAccount(RoleCaregiver))
	api.POST("/familiar/cadastro", h.RegisterAccount(RoleFamily))
	api.POST("/cuidador/profissional", h.SubmitProfessional)

	api.POST("/cuidador/login", h.Login(RoleCaregiver), h.guard...)
	api.POST("/familiar/login", h.Login(RoleFamily), h.guard...)
	api.POST("/paciente/login", h.Login(RolePatient), h.guard...)

	api.PUT("/cuidador/alterar-senha", h.ChangePassword(RoleCaregiver), h.guard...)
	api.PUT("/familiares/alterar-senha", h.ChangePassword(RoleFamily), h.guard...)
	api.PUT("/pacientes/alterar-senha", h.ChangePassword(RolePatient), h.guard...)

	api.GET("/cuidador/perfil", h.GetAccount(RoleCaregiver, "id"))
	api.GET("/familiar/perfil", h.GetAccount(RoleFamily, "id"))
	api.GET("/cuidador/familiar/meus-dados", h.GetAccount(RoleFamily, "familiar_id"))
	api.GET("/paciente/perfil", h.GetPatient)
	api.PUT("/cuidador/atualizar-perfil", h.UpdateAccount(RoleCaregiver))
	api.PUT("/familiar/atualizar-perfil", h.UpdateAccount(RoleFamily))
	api.PUT("/paciente/atualizar-perfil", h.UpdatePatient)

	api.GET("/cuidador/ExibirPacientes", h.ListPatients)
	api.GET("/cuidador/SelecionarPacienteMedicamento", h.ListPatients)
	api.GET("/cuidador/SelecionarPacienteConsulta", h.ListPatients)
	api.GET("/cuidador/SelecionarPacienteTarefa", h.ListPatients)
	api.GET("/pacientes/cuidador/:cuidadorId", h.ListCaregiverPatients)

	api.POST("/delete-account", h.Delete(RoleCaregiver))
	api.POST("/paciente/delete-account", h.Delete(RolePatient))
	api.POST("/familiar/delete-account", h.Delete(RoleFamily))
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

// -- Registration --

func (h *Handler) RegisterAccount(role Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in AccountInput
		if err := c.Bind(&in); err != nil {
			return bindError(err)
		}
		a, err := h.svc.RegisterAccount(c.Request().Context(), role, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, map[string]interface{}{
			"id":      a.ID,
			"message": role.String() + " " + a.Name + " registered",
		})
	}
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      p.ID,
		"message": "paciente " + p.Name + " registered",
	})
}

func (h *Handler) SubmitProfessional(c echo.Context) error {
	var in ProfessionalInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	if err := h.svc.SubmitProfessional(c.Request().Context(), in); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "professional details submitted for validation",
		"cuidador_id": in.CaregiverID,
	})
}

// -- Credentials --

func (h *Handler) Login(role Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in LoginInput
		if err := c.Bind(&in); err != nil {
			return bindError(err)
		}
		cred, err := h.svc.Login(c.Request().Context(), role, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message":    "login successful",
			role.IDKey(): cred.ID,
			"nome":       cred.Name,
		})
	}
}

func (h *Handler) ChangePassword(role Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in PasswordChangeInput
		if err := c.Bind(&in); err != nil {
			return bindError(err)
		}
		if err := h.svc.ChangePassword(c.Request().Context(), role, in); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "password changed",
		})
	}
}

// -- Profiles --

func (h *Handler) GetAccount(role Role, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c.QueryParam(param), param)
		if err != nil {
			return err
		}
		a, err := h.svc.GetAccount(c.Request().Context(), role, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": a})
	}
}

func (h *Handler) UpdateAccount(role Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in AccountProfileInput
		if err := c.Bind(&in); err != nil {
			return bindError(err)
		}
		a, err := h.svc.UpdateAccount(c.Request().Context(), role, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "profile updated",
			"data":    a,
		})
	}
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c.QueryParam("id"), "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": p})
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var in PatientProfileInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "patient profile updated",
		"data":    p,
	})
}

// -- Patient pickers --

func (h *Handler) listPatients(c echo.Context, caregiverID *int64) error {
	items, err := h.svc.ListPatients(c.Request().Context(), caregiverID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

func (h *Handler) ListPatients(c echo.Context) error {
	var caregiverID *int64
	if raw := c.QueryParam("cuidador_id"); raw != "" {
		id, err := parseID(raw, "cuidador_id")
		if err != nil {
			return err
		}
		caregiverID = &id
	}
	return h.listPatients(c, caregiverID)
}

func (h *Handler) ListCaregiverPatients(c echo.Context) error {
	id, err := parseID(c.Param("cuidadorId"), "cuidadorId")
	if err != nil {
		return err
	}
	return h.listPatients(c, &id)
}

// -- Deletion --

func (h *Handler) Delete(role Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in DeleteInput
		if err := c.Bind(&in); err != nil {
			return bindError(err)
		}
		report, err := h.svc.Delete(c.Request().Context(), role, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":   true,
			"message":   role.String() + " and all associated data deleted",
			"removidos": report.Removed,
		})
	}
}
