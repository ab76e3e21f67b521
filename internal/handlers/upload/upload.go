package upload

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	mrand "math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/image/draw"
)

const maxUploadBytes = 10 * 1024 * 1024

// Handler stores media for page and service content. Images wider than
// maxWidth are scaled down before writing.
type Handler struct {
	uploadsDir string
	maxWidth   int
}

func New(staticPath string) *Handler {
	return &Handler{
		uploadsDir: filepath.Join(staticPath, "uploads"),
		maxWidth:   1200,
	}
}

// Image handles POST /admin/api/upload.
func (h *Handler) Image(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file not found"})
		return
	}
	defer file.Close()

	buffer := make([]byte, 512)
	if _, err = file.Read(buffer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "file read error"})
		return
	}

	contentType := http.DetectContentType(buffer)
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return
	}

	if header.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large (max 10MB)"})
		return
	}

	file.Seek(0, 0)

	img, format, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image decode error"})
		return
	}

	processedImg := resizeImage(img, h.maxWidth)

	if err := os.MkdirAll(h.uploadsDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "uploads directory error"})
		return
	}

	var ext string
	switch format {
	case "jpeg", "jpg":
		ext = ".jpg"
	case "png":
		ext = ".png"
	case "gif":
		ext = ".gif"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "only jpg, png and gif images are supported"})
		return
	}

	filename := fmt.Sprintf("%d_%s%s",
		time.Now().Unix(),
		randomString(8),
		ext)

	path := filepath.Join(h.uploadsDir, filename)

	out, err := os.Create(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "file create error"})
		return
	}
	defer out.Close()

	switch format {
	case "png":
		// Keep PNG to preserve transparency.
		err = png.Encode(out, processedImg)
	case "gif":
		// GIFs pass through untouched to keep animation frames.
		file.Seek(0, 0)
		_, err = io.Copy(out, file)
	default:
		err = jpeg.Encode(out, processedImg, &jpeg.Options{Quality: 85})
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image save error"})
		return
	}

	fileInfo, _ := os.Stat(path)
	var finalSize int64
	if fileInfo != nil {
		finalSize = fileInfo.Size()
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      fmt.Sprintf("/static/uploads/%s", filename),
		"filename": filename,
		"size":     finalSize,
		"format":   format,
	})
}

func resizeImage(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth {
		return img
	}

	ratio := float64(maxWidth) / float64(width)
	newWidth := maxWidth
	newHeight := int(float64(height) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

func randomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[mrand.Intn(len(charset))]
	}
	return string(b)
}
