package http

import (
	"net/http"
	"time"

	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
	"github.com/tuckshop-au/tuckshop/internal/auth/store"
	"github.com/tuckshop-au/tuckshop/pkg/authsdk"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
)

// ReadyzHandler is the readiness probe; it checks the credential store and
// the revocation/session store, the two dependencies a request cannot be
// served without.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	kvStore kv.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			KV:       "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := kvStore.Ping(r.Context()); err != nil {
			checks.KV = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
