package controllers

import (
	"compress/gzip"
	"net/http"

	"github.com/gin-gonic/gin"
)

// gzipResponseWriter compresses a streamed body and keeps it flushable
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	_ = w.gzWriter.Flush()
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// ndjsonWriter prepares c for a newline delimited JSON stream. The returned
// close func must run once the stream ends.
func ndjsonWriter(c *gin.Context, gzipEnabled bool) (gin.ResponseWriter, func()) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	if !gzipEnabled {
		return c.Writer, func() {}
	}
	c.Header("Content-Encoding", "gzip")
	gzWriter := gzip.NewWriter(c.Writer)
	return &gzipResponseWriter{ResponseWriter: c.Writer, gzWriter: gzWriter}, func() { _ = gzWriter.Close() }
}
