package pagecraft

import (
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft/assets"
)

// handleImageUpload downsizes the upload, stores it and answers with the
// stored image as JSON.
func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image file provided")
	}
	if file.Size > assets.MaxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := assets.ProcessImage(src, file.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}

	ctx := c.Request().Context()
	url, err := a.Assets.Put(ctx, img.Filename, data, "image/jpeg")
	if err != nil {
		return err
	}
	img.URL = url
	img.Filename = path.Base(url)
	if err := a.Store.SaveImage(ctx, img); err != nil {
		return err
	}
	a.Logger.Info("image uploaded", zap.String("url", img.URL), zap.Int("size", img.Size))
	return c.JSON(http.StatusCreated, img)
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	if images == nil {
		images = []assets.Image{}
	}
	return c.JSON(http.StatusOK, images)
}

func (a *App) handleImageDelete(c echo.Context) error {
	ctx := c.Request().Context()
	img, err := a.Store.DeleteImage(ctx, c.Param("filename"))
	if err != nil {
		return err
	}
	if err := a.Assets.Delete(ctx, img.URL); err != nil {
		a.Logger.Warn("delete stored image", zap.String("url", img.URL), zap.Error(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// handleImageSearch proxies the stock photo search so the access key
// stays on the server.
func (a *App) handleImageSearch(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	results, err := a.Searcher.Search(c.Request().Context(), c.QueryParam("q"), page)
	if err != nil {
		if errors.Is(err, assets.ErrSearchDisabled) {
			return echo.NewHTTPError(http.StatusNotImplemented, err.Error())
		}
		a.Logger.Warn("image search", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "image search failed")
	}
	return c.JSON(http.StatusOK, results)
}
