package blobstore

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// FormFile is a multipart upload opened for reading.
type FormFile struct {
	FileName    string
	ContentType string
	io.ReadCloser
}

// OpenFormFile opens the multipart field of c. The caller closes it.
func OpenFormFile(c echo.Context, field string) (*FormFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is required", field))
	}
	if fh.Size > MaxFileSize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, ErrFileTooLarge.Error())
	}
	src, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &FormFile{FileName: fh.Filename, ContentType: ct, ReadCloser: src}, nil
}

// HTTPError maps a rejected upload to its status code, or returns nil when
// err is not an upload rejection.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, ErrFileTooLarge.Error())
	case errors.Is(err, ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, ErrInvalidContentType.Error())
	case errors.Is(err, ErrMissingFileName):
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingFileName.Error())
	}
	return nil
}

// Serve streams a stored blob as an attachment.
func Serve(c echo.Context, rc io.ReadCloser, meta *Metadata) error {
	defer rc.Close()
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
