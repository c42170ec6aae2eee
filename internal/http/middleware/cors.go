package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds the cross-origin policy. A "*" entry in any list allows
// everything for that list.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string

	// MaxAge is how long (in seconds) a preflight result may be cached.
	// Zero leaves the header unset.
	MaxAge int
}

// AllowAll permits any origin, method and header.
func AllowAll() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"*"},
		AllowHeaders: []string{"*"},
	}
}

// CORS answers preflight requests and decorates every other response with
// the CORS headers. It wraps the whole handler, not single routes, so
// preflights are answered even for paths the router does not know.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = AllowAll()
	}

	anyOrigin := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	anyMethod := len(cfg.AllowMethods) == 0 || slices.Contains(cfg.AllowMethods, "*")
	anyHeader := len(cfg.AllowHeaders) == 0 || slices.Contains(cfg.AllowHeaders, "*")

	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			switch {
			case origin == "":
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(cfg.AllowOrigins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			default:
				next.ServeHTTP(w, r)
				return
			}

			reqMethod := r.Header.Get("Access-Control-Request-Method")
			if r.Method != http.MethodOptions || reqMethod == "" {
				next.ServeHTTP(w, r)
				return
			}

			// preflight
			if anyMethod {
				h.Set("Access-Control-Allow-Methods", reqMethod)
			} else {
				h.Set("Access-Control-Allow-Methods", methods)
			}

			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				if anyHeader {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				} else {
					h.Set("Access-Control-Allow-Headers", headers)
				}
			}

			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
