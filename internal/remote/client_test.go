package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

func TestAutomationStatusDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/automation/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.AutomationStatus{
			Status:  "running",
			Message: "2 active",
			Accounts: []models.DeviceRecord{
				{DeviceID: "a", DisplayName: "Pixel", Enabled: true},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	status, err := client.AutomationStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Status != "running" || len(status.Accounts) != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Accounts[0].DeviceID != "a" || !status.Accounts[0].Enabled {
		t.Fatalf("unexpected record %+v", status.Accounts[0])
	}
}

func TestErrorDetailTakesPrecedence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"detail":  "batch_size must be positive",
			"message": "validation failed",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetConfig(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindClient {
		t.Fatalf("expected client kind, got %v", apiErr.Kind)
	}
	if apiErr.Message != "batch_size must be positive" {
		t.Fatalf("detail should win over message, got %q", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status code %d", apiErr.StatusCode)
	}
}

func TestErrorFallsBackToMessageThenStatusText(t *testing.T) {
	responses := []struct {
		body string
		want string
	}{
		{`{"message":"broke"}`, "broke"},
		{`not json at all`, "Bad Request"},
	}

	for _, tc := range responses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(tc.body))
		}))

		client := NewClient(server.URL)
		_, err := client.GetConfig(context.Background())
		server.Close()

		apiErr, ok := AsAPIError(err)
		if !ok {
			t.Fatalf("expected *APIError for body %q", tc.body)
		}
		if apiErr.Message != tc.want {
			t.Errorf("body %q: got message %q, want %q", tc.body, apiErr.Message, tc.want)
		}
	}
}

func TestServerErrorsArePrefixed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "database exploded"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.AutomationStatus(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindServer {
		t.Fatalf("expected server kind, got %v", apiErr.Kind)
	}
	if apiErr.Message != "Server error: database exploded" {
		t.Fatalf("5xx messages carry the prefix, got %q", apiErr.Message)
	}
}

func TestConnectivityFailure(t *testing.T) {
	// a closed server: connection refused, no HTTP response at all
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, WithTimeout(time.Second))
	_, err := client.AutomationStatus(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindConnectivity {
		t.Fatalf("expected connectivity kind, got %v", apiErr.Kind)
	}
	if apiErr.Message != "Cannot reach server. Please check your connection." {
		t.Fatalf("unexpected operator message %q", apiErr.Message)
	}
	if apiErr.Unwrap() == nil {
		t.Fatal("transport error should be preserved for logs")
	}
}

func TestActivationKeyIsSentAsBearer(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.AutomationStatus{})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithActivationKey("secret-key"))
	if _, err := client.AutomationStatus(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("unexpected Authorization header %q", gotAuth)
	}
}

func TestStartAutomationPostsSelection(t *testing.T) {
	var got models.DeviceSelection
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/automation/start" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(models.AutomationStatus{Message: "started"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	sel := models.DeviceSelection{
		DeviceIDs: []string{"a", "b"},
		Mode:      models.TaskModeWarmup,
		WarmupDay: 4,
	}
	status, err := client.StartAutomation(context.Background(), sel)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if status.Message != "started" {
		t.Fatalf("unexpected response %+v", status)
	}
	if len(got.DeviceIDs) != 2 || got.Mode != models.TaskModeWarmup || got.WarmupDay != 4 {
		t.Fatalf("selection not transmitted faithfully: %+v", got)
	}
}

func TestListTargetsBuildsQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.Target{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListTargets(context.Background(), TargetListParams{Page: 2, Limit: 50, Status: "pending"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery != "limit=50&page=2&status=pending" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}
