package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestCollector_RecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET", "/api/projects", 200, 10*time.Millisecond)
	c.RecordRequest("GET", "/api/projects", 200, 20*time.Millisecond)
	c.RecordRequest("DELETE", "/api/projects/:id", 404, time.Millisecond)

	mf := gather(t, reg, "techlam_http_requests_total")
	assert.Len(t, mf.GetMetric(), 2)

	latency := gather(t, reg, "techlam_http_request_duration_seconds")
	var count uint64
	for _, m := range latency.GetMetric() {
		count += m.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(3), count)
}

func TestCollector_RecordAuthEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthEvent("signin", "success")
	c.RecordAuthEvent("signin", "invalid_credentials")
	c.RecordAuthEvent("signin", "success")

	mf := gather(t, reg, "techlam_auth_events_total")
	values := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "outcome" {
				values[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["success"])
	assert.Equal(t, 1.0, values["invalid_credentials"])
}

func TestCollector_RecordImageUpload(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordImageUpload(1024)
	c.RecordImageUpload(512)

	assert.Equal(t, 2.0, gather(t, reg, "techlam_image_uploads_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1536.0, gather(t, reg, "techlam_image_upload_bytes_total").GetMetric()[0].GetCounter().GetValue())
}

func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordEnquiry()
	c.RecordContentMutation("project", "create")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "techlam_enquiries_total 1")
	assert.Contains(t, string(body), `techlam_content_mutations_total{action="create",entity="project"} 1`)
}

func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordEnquiry()
	c2.RecordEnquiry()
	c2.RecordEnquiry()

	assert.Equal(t, 1.0, gather(t, reg1, "techlam_enquiries_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, gather(t, reg2, "techlam_enquiries_total").GetMetric()[0].GetCounter().GetValue())
}
