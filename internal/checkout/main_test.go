package checkout

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-agua/internal/obs"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("agua_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}
