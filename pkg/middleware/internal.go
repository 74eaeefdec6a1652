package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"
)

// InternalOnly restricts a route group to callers inside one of prefixes,
// given in CIDR notation. Malformed prefixes are logged and ignored; with no
// valid prefix every caller is refused.
func InternalOnly(prefixes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	allowed := make([]netip.Prefix, 0, len(prefixes))
	for _, raw := range prefixes {
		p, err := netip.ParsePrefix(strings.TrimSpace(raw))
		if err != nil {
			logger.Warn("ignoring malformed internal CIDR",
				slog.String("cidr", raw),
				slog.String("error", err.Error()),
			)
			continue
		}
		allowed = append(allowed, p.Masked())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := remoteHost(r)
			if addr, err := netip.ParseAddr(host); err == nil {
				addr = addr.Unmap()
				for _, p := range allowed {
					if p.Contains(addr) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			logger.Warn("internal route refused",
				slog.String("remote", host),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"internal route"}}`))
		})
	}
}

// RegisterPprof mounts the runtime profiler under /debug/pprof for callers
// inside prefixes. Nothing is mounted when prefixes is empty.
func RegisterPprof(r chi.Router, prefixes []string, logger *slog.Logger) {
	if len(prefixes) == 0 {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(InternalOnly(prefixes, logger))
		r.HandleFunc("/debug/pprof/*", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	})
}
