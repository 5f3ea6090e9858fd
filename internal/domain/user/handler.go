package user

import (
	"context"
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

// authResponse is the login/register body the dashboard stores.
type authResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Public; the JWT middleware skips these paths.
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.GET("/auth/me", h.Me)
	api.POST("/auth/logout", h.Logout)

	api.GET("/users/doctors", h.ListDoctors)
	api.GET("/users/doctors/verified", h.ListVerifiedDoctors)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	// Record-level checks happen in the service so a missing id is a 404
	// for every caller.
	api.PUT("/users/doctors/:id/verify", h.VerifyDoctor)
	api.DELETE("/users/:id", h.DeleteUser)

	adminOnly := auth.RequireRole(auth.RoleAdmin)
	api.GET("/users", h.ListUsers, adminOnly)
	api.GET("/users/doctors/unverified", h.ListUnverifiedDoctors, adminOnly)
}

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("No user found with id %s", c.Param("id"))
	}
	return id, nil
}

// -- Auth --

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := validate.Bind(c, &in); err != nil {
		return err
	}
	res, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{Success: true, Token: res.Token, User: res.User})
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := validate.Bind(c, &in); err != nil {
		return err
	}
	res, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Success: true, Token: res.Token, User: res.User})
}

func (h *Handler) Me(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Me(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, u)
}

func (h *Handler) Logout(c echo.Context) error {
	tok, ok := auth.TokenFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
	}
	if err := h.svc.Logout(c.Request().Context(), tok); err != nil {
		return err
	}
	return respond.Deleted(c)
}

// -- Users --

func (h *Handler) ListUsers(c echo.Context) error {
	return h.list(c, h.svc.ListUsers)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return h.list(c, h.svc.ListDoctors)
}

func (h *Handler) ListVerifiedDoctors(c echo.Context) error {
	return h.list(c, h.svc.ListVerifiedDoctors)
}

func (h *Handler) ListUnverifiedDoctors(c echo.Context) error {
	return h.list(c, h.svc.ListUnverifiedDoctors)
}

type listFunc func(ctx context.Context, actor auth.Actor) ([]*User, error)

func (h *Handler) list(c echo.Context, fn listFunc) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	items, err := fn(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return respond.List(c, items)
}

func (h *Handler) GetUser(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}
	var p Patch
	if err := validate.Bind(c, &p); err != nil {
		return err
	}
	u, err := h.svc.UpdateUser(c.Request().Context(), actor, id, p)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, u)
}

func (h *Handler) VerifyDoctor(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NotFound("Doctor not found")
	}
	u, err := h.svc.VerifyDoctor(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return respond.Deleted(c)
}
