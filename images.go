package blogfront

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/blogfront/gateway"
)

const jpegQuality = 80

var errImageTooLarge = errors.New("image too large")

// ProcessImage decodes an image from src, resizes it to maxWidth when wider,
// and re-encodes it as JPEG ready to be forwarded to the posts service.
func ProcessImage(src io.Reader, originalName string, maxWidth int) (gateway.Attachment, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return gateway.Attachment{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := max(h*maxWidth/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return gateway.Attachment{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return gateway.Attachment{
		Filename:    jpegName(originalName),
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

// jpegName swaps the extension of an uploaded file name for .jpg.
func jpegName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return base + ".jpg"
}

// formImage reads the optional "image" file of a post form. It returns nil
// when no file was chosen.
func (a *App) formImage(c echo.Context) (*gateway.Attachment, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if file.Size == 0 {
		return nil, nil
	}
	if file.Size > a.Config.MaxUploadSize {
		return nil, errImageTooLarge
	}
	return a.openImage(file)
}

func (a *App) openImage(file *multipart.FileHeader) (*gateway.Attachment, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	att, err := ProcessImage(src, file.Filename, a.Config.MaxImageWidth)
	if err != nil {
		return nil, err
	}
	return &att, nil
}
