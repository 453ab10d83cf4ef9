package reports

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/hms/internal/domain/scheduling"
	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
	"github.com/carelink/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/file", h.File)

	doc := g.Group("", auth.RequireRole("doctor"))
	doc.POST("", h.Create)
	doc.POST("/upload", h.Upload)
	doc.POST("/appointments/:appointmentId", h.CreateFromAppointment)
	doc.PATCH("/:id", h.Update)
	doc.DELETE("/:id", h.Delete)
}

func httpError(err error) error {
	if he := blobstore.HTTPError(err); he != nil {
		return he
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "medical report not found")
	case errors.Is(err, scheduling.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden), errors.Is(err, scheduling.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Create(c.Request().Context(), caller, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) CreateFromAppointment(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	apptID, err := parseID(c, "appointmentId")
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.CreateFromAppointment(c.Request().Context(), caller, apptID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Upload takes a multipart form with file, patient_id, optional title and,
// for admins, doctor_id.
func (h *Handler) Upload(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.FormValue("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	var doctorID uuid.UUID
	if v := c.FormValue("doctor_id"); v != "" {
		if doctorID, err = uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
	}
	f, err := blobstore.OpenFormFile(c, "file")
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := h.svc.Upload(c.Request().Context(), caller, UploadRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		Title:       c.FormValue("title"),
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Content:     f,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) File(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	rc, meta, err := h.svc.File(c.Request().Context(), caller, id)
	if err != nil {
		return httpError(err)
	}
	return blobstore.Serve(c, rc, meta)
}

func (h *Handler) Update(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var upd Update
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Update(c.Request().Context(), caller, id, upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Delete(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), caller, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List accepts ?patient_id= and ?doctor_id= filters, applied within the
// caller's own scope.
func (h *Handler) List(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	var f Filter
	if v := c.QueryParam("patient_id"); v != "" {
		if f.PatientID, err = uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		if f.DoctorID, err = uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), caller, f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
