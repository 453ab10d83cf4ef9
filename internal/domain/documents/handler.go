package documents

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	folders := api.Group("/folders")
	folders.GET("", h.ListFolders)
	folders.GET("/:id", h.GetFolder)
	folders.POST("", h.CreateFolder, auth.RequireRole("doctor"))
	folders.PATCH("/:id", h.RenameFolder, auth.RequireRole("doctor"))
	folders.PATCH("/:id/privacy", h.SetPrivacy, auth.RequireRole("doctor"))
	folders.DELETE("/:id", h.DeleteFolder, auth.RequireRole("doctor"))

	docs := api.Group("/documents")
	docs.GET("", h.List)
	docs.GET("/:id", h.Get)
	docs.GET("/:id/file", h.Download)
	docs.POST("", h.Upload, auth.RequireRole("doctor"))
	docs.DELETE("/:id", h.Delete, auth.RequireRole("doctor"))
}

func httpError(err error) error {
	if he := blobstore.HTTPError(err); he != nil {
		return he
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// optionalFolder reads folder_id from the query string or form. Empty
// means the caller's root.
func optionalFolder(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid folder_id")
	}
	return &id, nil
}

// =========== Folders ===========

func (h *Handler) CreateFolder(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	var req FolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.CreateFolder(c.Request().Context(), caller, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) ListFolders(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListFolders(c.Request().Context(), caller)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Folder{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetFolder(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	f, err := h.svc.GetFolder(c.Request().Context(), caller, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) RenameFolder(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.RenameFolder(c.Request().Context(), caller, id, body.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) SetPrivacy(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var body struct {
		Privacy Privacy `json:"privacy"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.SetPrivacy(c.Request().Context(), caller, id, body.Privacy)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFolder(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteFolder(c.Request().Context(), caller, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// =========== Documents ===========

// Upload takes a multipart form with a file field and an optional folder_id.
func (h *Handler) Upload(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	folderID, err := optionalFolder(c.FormValue("folder_id"))
	if err != nil {
		return err
	}
	f, err := blobstore.OpenFormFile(c, "file")
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := h.svc.Upload(c.Request().Context(), caller, UploadRequest{
		FolderID:    folderID,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Content:     f,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

// List accepts ?folder_id=; without it the caller's root documents are listed.
func (h *Handler) List(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	folderID, err := optionalFolder(c.QueryParam("folder_id"))
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), caller, folderID)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Document{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Download(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rc, meta, err := h.svc.Download(c.Request().Context(), caller, id)
	if err != nil {
		return httpError(err)
	}
	return blobstore.Serve(c, rc, meta)
}

func (h *Handler) Delete(c echo.Context) error {
	caller, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), caller, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
