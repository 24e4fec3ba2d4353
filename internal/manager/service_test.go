package manager

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hvr-ops/hvr-manager/internal/fivetran"
)

func testService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := fivetran.NewWithOptions(fivetran.NewCredential("key", "secret"), fivetran.Options{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("fivetran.NewWithOptions() error = %v", err)
	}
	svc, err := NewService(api)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func failingService(t *testing.T, status int) *Service {
	t.Helper()

	return testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"code":"Boom","message":"remote failure"}`)
	}))
}

func TestListGroupsMapsEnvelope(t *testing.T) {
	t.Parallel()

	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/groups" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"data":{"items":[{"id":"g1","name":"G1"}]}}`)
	}))

	groups, err := svc.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].ID != "g1" || groups[0].Name != "G1" {
		t.Fatalf("group = %+v, want id g1 name G1", groups[0])
	}
	if groups[0].CreatedAt != nil {
		t.Fatalf("CreatedAt = %v, want nil for missing created_at", groups[0].CreatedAt)
	}
}

func TestListGroupsEmptyEnvelopeIsEmptyResult(t *testing.T) {
	t.Parallel()

	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))

	groups, err := svc.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("len(groups) = %d, want 0 for missing data member", len(groups))
	}
}

func TestListGroupsPropagatesFailure(t *testing.T) {
	t.Parallel()

	svc := failingService(t, http.StatusInternalServerError)

	_, err := svc.ListGroups(context.Background())
	if err == nil {
		t.Fatal("ListGroups() expected propagated error")
	}
	var te *fivetran.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("ListGroups() error = %T, want *fivetran.TransportError", err)
	}
}

func TestListConnectorsDerivesStatus(t *testing.T) {
	t.Parallel()

	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connectors" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"data":{"items":[
			{"id":"c1","schema":"orders","service":"postgres","paused":false,"group_id":"g1","status":{"sync_state":"scheduled","setup_state":"connected"},"succeeded_at":"2026-08-01T10:00:00Z"},
			{"id":"c2","schema":"billing","service":"salesforce","paused":true,"group_id":"g1","status":{"sync_state":"paused","setup_state":"connected"}}
		]}}`)
	}))

	connectors, err := svc.ListConnectors(context.Background(), "")
	if err != nil {
		t.Fatalf("ListConnectors() error = %v", err)
	}
	if len(connectors) != 2 {
		t.Fatalf("len(connectors) = %d, want 2", len(connectors))
	}

	for _, connector := range connectors {
		wantStatus := StatusActive
		if connector.Paused {
			wantStatus = StatusPaused
		}
		if connector.Status != wantStatus {
			t.Fatalf("connector %s status = %q with paused=%t", connector.ID, connector.Status, connector.Paused)
		}
	}
	if connectors[0].Name != "orders" || connectors[0].Service != "postgres" {
		t.Fatalf("connector = %+v, want schema-derived name and service", connectors[0])
	}
	if connectors[0].LastSync == nil {
		t.Fatal("LastSync = nil, want parsed succeeded_at")
	}
	if connectors[1].Status != StatusPaused {
		t.Fatalf("paused connector status = %q, want %q", connectors[1].Status, StatusPaused)
	}
}

func TestListConnectorsScopesToGroup(t *testing.T) {
	t.Parallel()

	var gotPath string
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"data":{"items":[]}}`)
	}))

	if _, err := svc.ListConnectors(context.Background(), "g-42"); err != nil {
		t.Fatalf("ListConnectors() error = %v", err)
	}
	if gotPath != "/groups/g-42/connectors" {
		t.Fatalf("path = %q, want /groups/g-42/connectors", gotPath)
	}
}

func TestListConnectorsPropagatesFailure(t *testing.T) {
	t.Parallel()

	svc := failingService(t, http.StatusBadGateway)

	if _, err := svc.ListConnectors(context.Background(), ""); err == nil {
		t.Fatal("ListConnectors() expected propagated error")
	}
}

func TestGetConnectorDetailSharesStatusDerivation(t *testing.T) {
	t.Parallel()

	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connectors/c1" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"data":{"id":"c1","schema":"orders","service":"postgres","paused":true,
			"schedule_type":"auto","sync_frequency":360,"daily_sync_time":"03:00",
			"status":{"setup_state":"connected","sync_state":"paused","update_state":"on_schedule"},
			"succeeded_at":"2026-08-01T10:00:00Z","failed_at":"2026-08-02T10:00:00Z",
			"config":{"host":"db.internal"},"group_id":"g1"}}`)
	}))

	detail, err := svc.GetConnector(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetConnector() error = %v", err)
	}
	if detail.Status != StatusPaused || !detail.Paused {
		t.Fatalf("detail status = %q paused = %t, want the shared derivation", detail.Status, detail.Paused)
	}
	if detail.ScheduleType != "auto" || detail.SyncFrequency != 360 || detail.DailySyncTime != "03:00" {
		t.Fatalf("schedule = %+v, want auto/360/03:00", detail)
	}
	if detail.UpdateState != "on_schedule" {
		t.Fatalf("UpdateState = %q, want on_schedule", detail.UpdateState)
	}
	if len(detail.Config) == 0 {
		t.Fatal("Config = empty, want raw config passthrough")
	}
}

func TestGetGroupPropagatesFailure(t *testing.T) {
	t.Parallel()

	svc := failingService(t, http.StatusNotFound)

	if _, err := svc.GetGroup(context.Background(), "g-1"); err == nil {
		t.Fatal("GetGroup() expected propagated error")
	}
}

func TestPauseAndActivateTargetPausedFlag(t *testing.T) {
	t.Parallel()

	type call struct {
		method string
		path   string
		body   string
	}
	var calls []call
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{method: r.Method, path: r.URL.Path, body: strings.TrimSpace(string(body))})
		_, _ = io.WriteString(w, `{"data":{"id":"c1","paused":true}}`)
	}))

	result := svc.Pause(context.Background(), "c1")
	if !result.Success {
		t.Fatalf("Pause() result = %+v, want success", result)
	}
	if result.Message != "Connector paused" {
		t.Fatalf("Pause() message = %q, want %q", result.Message, "Connector paused")
	}

	result = svc.Activate(context.Background(), "c1")
	if !result.Success || result.Message != "Connector activated" {
		t.Fatalf("Activate() result = %+v", result)
	}

	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].method != http.MethodPatch || calls[0].path != "/connectors/c1" || calls[0].body != `{"paused":true}` {
		t.Fatalf("pause call = %+v", calls[0])
	}
	if calls[1].body != `{"paused":false}` {
		t.Fatalf("activate body = %q, want {\"paused\":false}", calls[1].body)
	}
}

func TestMutationsWrapFailuresWithoutRaising(t *testing.T) {
	t.Parallel()

	svc := failingService(t, http.StatusConflict)
	ctx := context.Background()

	results := map[string]OperationResult{
		"pause":           svc.Pause(ctx, "c1"),
		"activate":        svc.Activate(ctx, "c1"),
		"sync":            svc.Sync(ctx, "c1", false),
		"force_sync":      svc.Sync(ctx, "c1", true),
		"get_schemas":     svc.GetSchemas(ctx, "c1"),
		"resync_table":    svc.ResyncTable(ctx, "c1", "public", "orders"),
		"toggle_table":    svc.ToggleTable(ctx, "c1", "public", "orders", true),
		"test_connection": svc.TestConnection(ctx, "c1"),
	}

	for name, result := range results {
		if result.Success {
			t.Fatalf("%s: result = %+v, want wrapped failure", name, result)
		}
		if !strings.Contains(result.Message, "remote failure") {
			t.Fatalf("%s: message = %q, want the remote cause embedded", name, result.Message)
		}
	}
}

func TestSyncTargetsSyncOrForcePath(t *testing.T) {
	t.Parallel()

	var paths []string
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %q, want POST", r.Method)
		}
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))

	result := svc.Sync(context.Background(), "c1", false)
	if !result.Success || !strings.Contains(result.Message, "sync") || strings.Contains(result.Message, "force") {
		t.Fatalf("Sync(force=false) result = %+v", result)
	}

	result = svc.Sync(context.Background(), "c1", true)
	if !result.Success || !strings.Contains(result.Message, "force sync") {
		t.Fatalf("Sync(force=true) result = %+v", result)
	}

	if len(paths) != 2 || paths[0] != "/connectors/c1/sync" || paths[1] != "/connectors/c1/force" {
		t.Fatalf("paths = %v, want [/connectors/c1/sync /connectors/c1/force]", paths)
	}
}

func TestGetSchemasWrapsMap(t *testing.T) {
	t.Parallel()

	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connectors/c1/schemas" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"data":{"schemas":{"public":{"tables":{"orders":{"enabled":true,"sync_mode":"SOFT_DELETE"},"audit":{"enabled":false,"sync_mode":"HISTORY"}}}}}}`)
	}))

	result := svc.GetSchemas(context.Background(), "c1")
	if !result.Success {
		t.Fatalf("GetSchemas() result = %+v, want success", result)
	}

	schemas, err := DecodeSchemas(result.Data)
	if err != nil {
		t.Fatalf("DecodeSchemas() error = %v", err)
	}
	tables := schemas["public"].Tables
	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d, want 2", len(tables))
	}
	if !tables["orders"].Enabled || tables["orders"].SyncMode != "SOFT_DELETE" {
		t.Fatalf("orders = %+v", tables["orders"])
	}
	if tables["audit"].Enabled {
		t.Fatalf("audit = %+v, want disabled", tables["audit"])
	}
}

func TestResyncTableTargetsTablePath(t *testing.T) {
	t.Parallel()

	var gotPath string
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))

	result := svc.ResyncTable(context.Background(), "c1", "public", "orders")
	if !result.Success {
		t.Fatalf("ResyncTable() result = %+v", result)
	}
	if gotPath != "/connectors/c1/schemas/public/tables/orders/resync" {
		t.Fatalf("path = %q", gotPath)
	}
	if !strings.Contains(result.Message, "public.orders") {
		t.Fatalf("message = %q, want the table named", result.Message)
	}
}

func TestToggleTablePatchesEnabled(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotBody string
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = strings.TrimSpace(string(body))
		_, _ = io.WriteString(w, `{"data":{"enabled":true}}`)
	}))

	result := svc.ToggleTable(context.Background(), "c1", "public", "orders", true)
	if !result.Success {
		t.Fatalf("ToggleTable() result = %+v", result)
	}
	if gotMethod != http.MethodPatch || gotPath != "/connectors/c1/schemas/public/tables/orders" {
		t.Fatalf("call = %s %s", gotMethod, gotPath)
	}
	if gotBody != `{"enabled":true}` {
		t.Fatalf("body = %q, want {\"enabled\":true}", gotBody)
	}
	if !strings.Contains(result.Message, "enabled") {
		t.Fatalf("message = %q, want enabled state named", result.Message)
	}

	result = svc.ToggleTable(context.Background(), "c1", "public", "orders", false)
	if !strings.Contains(result.Message, "disabled") {
		t.Fatalf("message = %q, want disabled state named", result.Message)
	}
}

func TestTestConnectionWrapsPayload(t *testing.T) {
	t.Parallel()

	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/connectors/c1/test" {
			t.Fatalf("call = %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"data":{"setup_tests":[{"title":"Connecting to host","status":"PASSED"}]}}`)
	}))

	result := svc.TestConnection(context.Background(), "c1")
	if !result.Success || result.Message != "Connection test completed" {
		t.Fatalf("TestConnection() result = %+v", result)
	}

	var payload struct {
		SetupTests []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"setup_tests"`
	}
	if err := json.Unmarshal(result.Data, &payload); err != nil {
		t.Fatalf("json.Unmarshal(result.Data) error = %v", err)
	}
	if len(payload.SetupTests) != 1 || payload.SetupTests[0].Status != "PASSED" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestParseOptionalTimeToleratesGarbage(t *testing.T) {
	t.Parallel()

	if got := parseOptionalTime("c1", "succeeded_at", ""); got != nil {
		t.Fatalf("parseOptionalTime(empty) = %v, want nil", got)
	}
	if got := parseOptionalTime("c1", "succeeded_at", "not-a-time"); got != nil {
		t.Fatalf("parseOptionalTime(garbage) = %v, want nil", got)
	}
	got := parseOptionalTime("c1", "succeeded_at", "2026-08-01T10:00:00Z")
	if got == nil || got.UTC().Hour() != 10 {
		t.Fatalf("parseOptionalTime(rfc3339) = %v", got)
	}
}
