package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/packplan/pkg/application/services/orchestration"
	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/infrastructure/config"
	"github.com/vsinha/packplan/pkg/infrastructure/events"
	"github.com/vsinha/packplan/pkg/infrastructure/metrics"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/memory"
)

const planBody = `{
  "contract": {"contractId": 42, "breakEvenPrice": %s},
  "allocations": [{
    "region": "N", "supplierId": 7, "goodId": 3, "goodType": "A",
    "startTime": "2025-01-01", "endTime": "2025-01-31",
    "quantity": "5000", "unitPrice": "2000"
  }]
}`

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector("packplan", reg)
	if err != nil {
		t.Fatalf("Failed to create collector: %v", err)
	}
	store := events.NewInMemoryEventStore(nil)
	if err := store.Subscribe(events.AllSessionEvents, collector); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	o := orchestration.NewSubmissionOrchestrator(session.Config{
		Clock:     func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
		Publisher: store,
	}, memory.NewSubmissionRepository())

	app := NewApp(config.ServerConfig{BodyLimit: 1 << 20}, nil)
	SetupRoutes(app, o, "/metrics", MetricsHandler(reg))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestHealthCheck(t *testing.T) {
	status, body := do(t, newTestApp(t), "GET", "/healthz", "")
	if status != fiber.StatusOK || !strings.Contains(body, `"UP"`) {
		t.Errorf("Expected 200 UP, got %d %s", status, body)
	}
}

func TestEvaluatePlan(t *testing.T) {
	status, body := do(t, newTestApp(t), "POST", "/api/v1/plans/evaluate", fmt.Sprintf(planBody, "null"))
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d %s", status, body)
	}

	var eval struct {
		Allocations []map[string]interface{} `json:"allocations"`
		Summary     struct {
			TotalWeight string `json:"totalWeight"`
			CanSubmit   bool   `json:"canSubmit"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(body), &eval); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(eval.Allocations) != 1 || eval.Summary.TotalWeight != "5000" || !eval.Summary.CanSubmit {
		t.Errorf("Expected one submittable allocation of 5000, got %s", body)
	}
}

func TestSubmitPlan(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, "POST", "/api/v1/plans/submit", fmt.Sprintf(planBody, "null"))
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", status, body)
	}
	if !strings.Contains(body, `"ids"`) {
		t.Errorf("Expected ids in response, got %s", body)
	}

	status, body = do(t, app, "GET", "/metrics", "")
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 from metrics, got %d", status)
	}
	if !strings.Contains(body, `packplan_submissions_total{kind="plan",outcome="ok"} 1`) {
		t.Errorf("Expected submission counted, got:\n%s", body)
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed json", "/api/v1/plans/evaluate", `{"contract":`, fiber.StatusBadRequest},
		{"bad date", "/api/v1/plans/evaluate", strings.Replace(fmt.Sprintf(planBody, "null"), "2025-01-31", "31/01/2025", 1), fiber.StatusBadRequest},
		{"not submittable", "/api/v1/plans/submit", fmt.Sprintf(planBody, `"1000"`), fiber.StatusUnprocessableEntity},
	}

	app := newTestApp(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, "POST", tt.path, tt.body)
			if status != tt.status {
				t.Errorf("Expected %d, got %d %s", tt.status, status, body)
			}
			if !strings.Contains(body, `"error"`) {
				t.Errorf("Expected error body, got %s", body)
			}
		})
	}
}

func TestEvaluateWeighing(t *testing.T) {
	body := `{
  "contract": {"contractId": 42},
  "allocations": [{
    "id": 1, "region": "N", "supplierId": 7, "goodId": 3, "goodType": "A",
    "startTime": "2025-01-01", "endTime": "2025-01-31", "quantity": "1000", "unitPrice": "2"
  }],
  "records": [
    {"codeBooking": "BK-1", "region": "N", "supplierId": 7, "goodId": 3, "goodType": "A", "loadingDate": "2025-01-05", "weight": "600"},
    {"codeBooking": "BK-2", "region": "N", "supplierId": 7, "goodId": 3, "goodType": "A", "loadingDate": "2025-01-06", "weight": "300"}
  ]
}`
	status, resp := do(t, newTestApp(t), "POST", "/api/v1/weighings/evaluate", body)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d %s", status, resp)
	}

	var eval struct {
		Records []struct {
			MaxGoodWeight string `json:"maxGoodWeight"`
		} `json:"records"`
	}
	if err := json.Unmarshal([]byte(resp), &eval); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(eval.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(eval.Records))
	}
	if eval.Records[0].MaxGoodWeight != "700" || eval.Records[1].MaxGoodWeight != "400" {
		t.Errorf("Expected ceilings 700 and 400, got %s and %s", eval.Records[0].MaxGoodWeight, eval.Records[1].MaxGoodWeight)
	}
}
