package manager

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

const (
	// StatusActive is the derived status of a connector whose paused flag is false.
	StatusActive = "Active"
	// StatusPaused is the derived status of a paused connector.
	StatusPaused = "Paused"
)

// Group is a named collection of connectors.
type Group struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
}

// Connector is the summary projection of a remote connector.
type Connector struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Service    string     `json:"service"`
	Status     string     `json:"status"`
	SyncState  string     `json:"sync_state"`
	SetupState string     `json:"setup_state"`
	LastSync   *time.Time `json:"last_sync"`
	FailedAt   *time.Time `json:"failed_at"`
	Paused     bool       `json:"paused"`
	GroupID    string     `json:"group_id"`
}

// ConnectorDetail is the full projection of a single connector, including
// schedule configuration and the service-specific config blob.
type ConnectorDetail struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Service       string          `json:"service"`
	Status        string          `json:"status"`
	Paused        bool            `json:"paused"`
	ScheduleType  string          `json:"schedule_type"`
	SyncFrequency int             `json:"sync_frequency"`
	DailySyncTime string          `json:"daily_sync_time"`
	SetupState    string          `json:"setup_state"`
	SyncState     string          `json:"sync_state"`
	UpdateState   string          `json:"update_state"`
	SucceededAt   *time.Time      `json:"succeeded_at"`
	FailedAt      *time.Time      `json:"failed_at"`
	Config        json.RawMessage `json:"config,omitempty"`
	GroupID       string          `json:"group_id"`
}

// TableConfig is the per-table slice of a connector schema.
type TableConfig struct {
	Enabled  bool   `json:"enabled"`
	SyncMode string `json:"sync_mode"`
}

// SchemaConfig maps table names to their settings within one schema.
type SchemaConfig struct {
	Tables map[string]TableConfig `json:"tables"`
}

// OperationResult is the uniform outcome of every wrapped operation. Callers
// render Message verbatim and never branch on error types.
type OperationResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// statusFromPaused is the single derivation of the Active/Paused status.
// Both the summary and detail projections go through it so the derived field
// and the raw paused flag can never disagree.
func statusFromPaused(paused bool) string {
	if paused {
		return StatusPaused
	}
	return StatusActive
}

// DecodeSchemas parses the raw schema payload of GetSchemas into the nested
// schema/table map. Both levels are keyed by remote-assigned names.
func DecodeSchemas(raw json.RawMessage) (map[string]SchemaConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload struct {
		Schemas map[string]SchemaConfig `json:"schemas"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload.Schemas, nil
}

type rawConnector struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Service string `json:"service"`
	Schema  string `json:"schema"`
	Paused  bool   `json:"paused"`
	Status  struct {
		SetupState  string `json:"setup_state"`
		SyncState   string `json:"sync_state"`
		UpdateState string `json:"update_state"`
	} `json:"status"`
	SucceededAt   string          `json:"succeeded_at"`
	FailedAt      string          `json:"failed_at"`
	ScheduleType  string          `json:"schedule_type"`
	SyncFrequency int             `json:"sync_frequency"`
	DailySyncTime string          `json:"daily_sync_time"`
	Config        json.RawMessage `json:"config"`
}

func mapConnector(raw json.RawMessage) (Connector, error) {
	var payload rawConnector
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Connector{}, err
	}
	return Connector{
		ID:         payload.ID,
		Name:       payload.Schema,
		Service:    payload.Service,
		Status:     statusFromPaused(payload.Paused),
		SyncState:  payload.Status.SyncState,
		SetupState: payload.Status.SetupState,
		LastSync:   parseOptionalTime(payload.ID, "succeeded_at", payload.SucceededAt),
		FailedAt:   parseOptionalTime(payload.ID, "failed_at", payload.FailedAt),
		Paused:     payload.Paused,
		GroupID:    payload.GroupID,
	}, nil
}

func mapConnectorDetail(raw json.RawMessage) (ConnectorDetail, error) {
	var payload rawConnector
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ConnectorDetail{}, err
	}
	return ConnectorDetail{
		ID:            payload.ID,
		Name:          payload.Schema,
		Service:       payload.Service,
		Status:        statusFromPaused(payload.Paused),
		Paused:        payload.Paused,
		ScheduleType:  payload.ScheduleType,
		SyncFrequency: payload.SyncFrequency,
		DailySyncTime: payload.DailySyncTime,
		SetupState:    payload.Status.SetupState,
		SyncState:     payload.Status.SyncState,
		UpdateState:   payload.Status.UpdateState,
		SucceededAt:   parseOptionalTime(payload.ID, "succeeded_at", payload.SucceededAt),
		FailedAt:      parseOptionalTime(payload.ID, "failed_at", payload.FailedAt),
		Config:        payload.Config,
		GroupID:       payload.GroupID,
	}, nil
}

func mapGroup(raw json.RawMessage) (Group, error) {
	var payload struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Group{}, err
	}
	return Group{
		ID:        payload.ID,
		Name:      payload.Name,
		CreatedAt: parseOptionalTime(payload.ID, "created_at", payload.CreatedAt),
	}, nil
}

// parseOptionalTime tolerates missing or malformed timestamps: remote records
// with an unparseable field keep a nil time instead of failing the listing.
func parseOptionalTime(entityID, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		slog.Warn("fivetran timestamp parse failed", "entity_id", entityID, "field", field, "err", err)
		return nil
	}
	return &t
}
