package track

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tdewolff/minify/v2"
	minjs "github.com/tdewolff/minify/v2/js"
)

//go:embed tracker.js
var trackerJS string

var (
	minifyOnce sync.Once
	minifiedJS string
)

// Script serves GET /track.js, the snippet sites embed to feed the beacon
// endpoint. Minified once at first request.
func (h *Handler) Script(c *gin.Context) {
	minifyOnce.Do(func() {
		m := minify.New()
		m.AddFunc("application/javascript", minjs.Minify)
		out, err := m.String("application/javascript", trackerJS)
		if err != nil {
			out = trackerJS
		}
		minifiedJS = out
	})

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(minifiedJS))
}
