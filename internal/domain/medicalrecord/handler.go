package medicalrecord

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medicare/medicare/internal/platform/apperr"
	"github.com/medicare/medicare/internal/platform/auth"
	"github.com/medicare/medicare/internal/platform/respond"
	"github.com/medicare/medicare/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/medical-records", h.Create, auth.RequireRole(auth.RoleDoctor))

	api.GET("/medical-records", h.List)
	api.GET("/medical-records/:id", h.Get)
	api.PUT("/medical-records/:id", h.Update)
	api.DELETE("/medical-records/:id", h.Delete)
}

func recordID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("No medical record found with id %s", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := validate.Bind(c, &in); err != nil {
		return err
	}
	v, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, v)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return respond.List(c, items)
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, v)
}

func (h *Handler) Update(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	var p Patch
	if err := validate.Bind(c, &p); err != nil {
		return err
	}
	v, err := h.svc.Update(c.Request().Context(), actor, id, p)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, v)
}

func (h *Handler) Delete(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return respond.Deleted(c)
}
