package middleware

import (
	"bytes"
	"net/http"
)

// responseWriter wraps http.ResponseWriter to capture the status code and
// up to limit bytes of the response body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	limit      int64
	body       bytes.Buffer
}

func newResponseWriter(w http.ResponseWriter, limit int64) *responseWriter {
	return &responseWriter{ResponseWriter: w, limit: limit}
}

// WriteHeader captures the status code and prevents duplicate calls.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if room := rw.limit - int64(rw.body.Len()); room > 0 {
		if int64(len(b)) > room {
			rw.body.Write(b[:room])
		} else {
			rw.body.Write(b)
		}
	}
	return rw.ResponseWriter.Write(b)
}

// StatusCode returns the captured status, 200 when the handler never set one.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Body returns a copy of the captured response body.
func (rw *responseWriter) Body() []byte {
	return bytes.Clone(rw.body.Bytes())
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
