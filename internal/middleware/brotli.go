package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes the compression middleware. Responses shorter than
// MinLength go out uncompressed.
type BrotliConfig struct {
	Quality   int
	MinLength int
	Skipper   func(c *gin.Context) bool
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// compressibleTypes are the content type prefixes worth compressing.
var compressibleTypes = []string{"application/json", "text/plain", "text/html"}

// brotliWriter holds the body back until MinLength bytes have been seen, then
// decides once whether the response is compressed.
type brotliWriter struct {
	gin.ResponseWriter
	quality   int
	minLength int

	buf     []byte
	decided bool
	enc     *brotli.Writer
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	if bw.decided {
		if bw.enc != nil {
			return bw.enc.Write(data)
		}
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength {
		return len(data), nil
	}
	if err := bw.decide(true); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush commits to plain output when nothing was compressed yet, so that
// streaming handlers are never held back.
func (bw *brotliWriter) Flush() {
	if !bw.decided {
		_ = bw.decide(false)
	}
	if bw.enc != nil {
		_ = bw.enc.Flush()
	}
	bw.ResponseWriter.Flush()
}

func (bw *brotliWriter) decide(large bool) error {
	bw.decided = true
	if large && compressible(bw.ResponseWriter) {
		h := bw.ResponseWriter.Header()
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
		bw.enc = brotli.NewWriterLevel(bw.ResponseWriter, bw.quality)
	}

	pending := bw.buf
	bw.buf = nil
	if len(pending) == 0 {
		return nil
	}
	if bw.enc != nil {
		_, err := bw.enc.Write(pending)
		return err
	}
	_, err := bw.ResponseWriter.Write(pending)
	return err
}

func (bw *brotliWriter) close() error {
	if !bw.decided {
		if err := bw.decide(false); err != nil {
			return err
		}
	}
	if bw.enc != nil {
		return bw.enc.Close()
	}
	return nil
}

// Brotli compresses JSON responses for clients that accept br.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if isStream(c) || (cfg.Skipper != nil && cfg.Skipper(c)) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = bw
		defer func() {
			c.Writer = bw.ResponseWriter
			if err := bw.close(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// isStream reports SSE and WebSocket requests, which must pass through
// unbuffered.
func isStream(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	// Event and metric streams are SSE even when the client omits Accept.
	p := c.Request.URL.Path
	return strings.HasPrefix(p, "/ws/") || strings.HasSuffix(p, "/events") || strings.HasSuffix(p, "/metrics")
}

func compressible(w http.ResponseWriter) bool {
	if w.Header().Get("Content-Encoding") != "" {
		return false
	}
	ct := strings.ToLower(w.Header().Get("Content-Type"))
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// acceptsBrotli honours q-values, so "br;q=0" opts out.
func acceptsBrotli(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), "br") {
			continue
		}
		q, found := strings.CutPrefix(strings.TrimSpace(params), "q=")
		if !found {
			return true
		}
		v, err := strconv.ParseFloat(q, 64)
		return err == nil && v > 0
	}
	return false
}
