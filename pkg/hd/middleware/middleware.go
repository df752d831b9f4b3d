package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"

	"github.com/allears/helpdesk/pkg/hd/logger"
)

// DefaultStack applies the default middleware stack to a router. trustedHops is the number
// of reverse proxies in front of the server whose X-Forwarded-For entries are believed.
func DefaultStack(r chi.Router, level string, timeout time.Duration, trustedHops int) {
	r.Use(chimw.RequestID)
	r.Use(ClientAddress(trustedHops))
	r.Use(httplog.RequestLogger(AccessLogger(level)))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
}

// AccessLogger builds the request logger at the application log level.
func AccessLogger(level string) *httplog.Logger {
	return httplog.NewLogger("helpdesk", httplog.Options{
		LogLevel:         logger.ToSlogLevel(logger.ParseLevel(level)),
		Concise:          true,
		MessageFieldName: "message",
		QuietDownRoutes:  []string{"/healthz"},
		QuietDownPeriod:  time.Minute,
	})
}

// ClientAddress stores the originating client address in the request context.
func ClientAddress(trustedHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithClientAddress(r.Context(), ExtractIP(r, trustedHops))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractIP returns the client address. The peer address is trusted as is; each trusted
// hop then accepts one more X-Forwarded-For entry, read from the right, since only the
// entries appended by our own proxies are reliable. With no trusted hops the header is
// ignored.
func ExtractIP(r *http.Request, trustedHops int) string {
	addr := peerAddress(r)
	if trustedHops <= 0 {
		return addr
	}

	xff := r.Header.Values("X-Forwarded-For")
	var entries []string
	for _, v := range xff {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				entries = append(entries, e)
			}
		}
	}

	for i := 0; i < trustedHops && len(entries) > 0; i++ {
		addr = entries[len(entries)-1]
		entries = entries[:len(entries)-1]
	}
	return addr
}

func peerAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WantsJSON reports whether the client asked for a JSON response rather than a page.
func WantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
