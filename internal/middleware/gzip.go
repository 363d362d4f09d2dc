package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// compressible content type prefixes. PNG payloads are already compressed
// and travel base64-encoded inside JSON, which still benefits.
var compressibleTypes = []string{
	"application/json",
	"text/html",
	"text/plain",
	"text/csv",
}

var gzipPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// Gzip compresses responses for clients that accept it.
func Gzip() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gw := gzipPool.Get().(*gzip.Writer)
		defer gzipPool.Put(gw)

		wrapper := &gzipWriter{ResponseWriter: c.Writer, gz: gw}
		c.Writer = wrapper
		defer wrapper.close()

		c.Next()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	started bool
	skipped bool
}

func (w *gzipWriter) start() {
	if w.started || w.skipped {
		return
	}
	ct := w.Header().Get("Content-Type")
	for _, t := range compressibleTypes {
		if strings.HasPrefix(ct, t) {
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Set("Vary", "Accept-Encoding")
			w.Header().Del("Content-Length")
			w.gz.Reset(w.ResponseWriter)
			w.started = true
			return
		}
	}
	w.skipped = true
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	w.start()
	if !w.started {
		return w.ResponseWriter.Write(data)
	}
	return w.gz.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) close() {
	if w.started {
		_ = w.gz.Close()
	}
}
