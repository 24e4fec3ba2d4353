// Package manager exposes connector lifecycle operations over the Fivetran
// transport client. Read paths (group/connector listings and details) surface
// transport failures to the caller unchanged; every other operation folds its
// outcome into a uniform OperationResult so callers have a single
// success/failure affordance.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hvr-ops/hvr-manager/internal/fivetran"
	"github.com/hvr-ops/hvr-manager/internal/metrics"
)

// Service is the connector control plane. It holds no state beyond the
// transport client and performs exactly one remote call per operation.
type Service struct {
	api *fivetran.Client
}

// NewService wraps a transport client.
func NewService(api *fivetran.Client) (*Service, error) {
	if api == nil {
		return nil, errors.New("fivetran client is required")
	}
	return &Service{api: api}, nil
}

type listEnvelope struct {
	Data struct {
		Items []json.RawMessage `json:"items"`
	} `json:"data"`
}

type entityEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// ListGroups returns all groups. Failures propagate.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	items, err := s.listItems(ctx, "groups")
	if err != nil {
		return nil, err
	}
	out := make([]Group, 0, len(items))
	for _, raw := range items {
		group, err := mapGroup(raw)
		if err != nil {
			return nil, fmt.Errorf("decode group: %w", err)
		}
		out = append(out, group)
	}
	return out, nil
}

// GetGroup returns one group. Failures propagate.
func (s *Service) GetGroup(ctx context.Context, groupID string) (Group, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return Group{}, errors.New("group id is required")
	}
	raw, err := s.entity(ctx, http.MethodGet, "groups/"+url.PathEscape(groupID), nil)
	if err != nil {
		return Group{}, err
	}
	group, err := mapGroup(raw)
	if err != nil {
		return Group{}, fmt.Errorf("decode group: %w", err)
	}
	return group, nil
}

// ListConnectors returns connector summaries, scoped to one group when
// groupID is non-empty. Failures propagate.
func (s *Service) ListConnectors(ctx context.Context, groupID string) ([]Connector, error) {
	path := "connectors"
	if groupID = strings.TrimSpace(groupID); groupID != "" {
		path = "groups/" + url.PathEscape(groupID) + "/connectors"
	}
	items, err := s.listItems(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]Connector, 0, len(items))
	for _, raw := range items {
		connector, err := mapConnector(raw)
		if err != nil {
			return nil, fmt.Errorf("decode connector: %w", err)
		}
		out = append(out, connector)
	}
	return out, nil
}

// GetConnector returns the detail projection of one connector. Failures
// propagate.
func (s *Service) GetConnector(ctx context.Context, connectorID string) (ConnectorDetail, error) {
	connectorID = strings.TrimSpace(connectorID)
	if connectorID == "" {
		return ConnectorDetail{}, errors.New("connector id is required")
	}
	raw, err := s.entity(ctx, http.MethodGet, "connectors/"+url.PathEscape(connectorID), nil)
	if err != nil {
		return ConnectorDetail{}, err
	}
	detail, err := mapConnectorDetail(raw)
	if err != nil {
		return ConnectorDetail{}, fmt.Errorf("decode connector: %w", err)
	}
	return detail, nil
}

// Activate resumes a paused connector.
func (s *Service) Activate(ctx context.Context, connectorID string) OperationResult {
	return s.setPaused(ctx, "activate", connectorID, false, "Connector activated")
}

// Pause stops a connector's scheduled syncing.
func (s *Service) Pause(ctx context.Context, connectorID string) OperationResult {
	return s.setPaused(ctx, "pause", connectorID, true, "Connector paused")
}

func (s *Service) setPaused(ctx context.Context, operation, connectorID string, paused bool, message string) OperationResult {
	raw, err := s.entity(ctx, http.MethodPatch, "connectors/"+url.PathEscape(connectorID), map[string]bool{"paused": paused})
	return s.wrap(operation, message, raw, err)
}

// Sync triggers an incremental sync, or a full historical resync when force
// is set.
func (s *Service) Sync(ctx context.Context, connectorID string, force bool) OperationResult {
	action, kind := "sync", "sync"
	if force {
		action, kind = "force", "force sync"
	}
	raw, err := s.entity(ctx, http.MethodPost, "connectors/"+url.PathEscape(connectorID)+"/"+action, nil)
	return s.wrap("sync", "Connector "+kind+" triggered", raw, err)
}

// GetSchemas fetches the schema/table map of a connector. Unlike the other
// read paths this one is wrapped, matching the single-affordance contract of
// the schema management surface.
func (s *Service) GetSchemas(ctx context.Context, connectorID string) OperationResult {
	raw, err := s.entity(ctx, http.MethodGet, "connectors/"+url.PathEscape(connectorID)+"/schemas", nil)
	return s.wrap("get_schemas", "", raw, err)
}

// ResyncTable triggers a resync of one table.
func (s *Service) ResyncTable(ctx context.Context, connectorID, schema, table string) OperationResult {
	path := fmt.Sprintf("connectors/%s/schemas/%s/tables/%s/resync",
		url.PathEscape(connectorID), url.PathEscape(schema), url.PathEscape(table))
	raw, err := s.entity(ctx, http.MethodPost, path, nil)
	return s.wrap("resync_table", fmt.Sprintf("Table %s.%s resync triggered", schema, table), raw, err)
}

// ToggleTable enables or disables one table.
func (s *Service) ToggleTable(ctx context.Context, connectorID, schema, table string, enabled bool) OperationResult {
	path := fmt.Sprintf("connectors/%s/schemas/%s/tables/%s",
		url.PathEscape(connectorID), url.PathEscape(schema), url.PathEscape(table))
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	raw, err := s.entity(ctx, http.MethodPatch, path, map[string]bool{"enabled": enabled})
	return s.wrap("toggle_table", fmt.Sprintf("Table %s.%s %s", schema, table, state), raw, err)
}

// TestConnection runs the remote connection test for a connector.
func (s *Service) TestConnection(ctx context.Context, connectorID string) OperationResult {
	raw, err := s.entity(ctx, http.MethodPost, "connectors/"+url.PathEscape(connectorID)+"/test", nil)
	return s.wrap("test_connection", "Connection test completed", raw, err)
}

// wrap is the boundary at which typed errors stop propagating: any failure
// beneath a wrapped operation becomes a success=false result carrying only
// the reduced cause string.
func (s *Service) wrap(operation, message string, data json.RawMessage, err error) OperationResult {
	if err != nil {
		metrics.OperationsTotal.WithLabelValues(operation, "failure").Inc()
		return OperationResult{Success: false, Message: err.Error()}
	}
	metrics.OperationsTotal.WithLabelValues(operation, "success").Inc()
	return OperationResult{Success: true, Message: message, Data: data}
}

// listItems unwraps the {data:{items:[...]}} list envelope. A response with
// no data member is an empty listing, not an error.
func (s *Service) listItems(ctx context.Context, path string) ([]json.RawMessage, error) {
	body, err := s.api.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return envelope.Data.Items, nil
}

// entity unwraps the {data:{...}} single-entity envelope.
func (s *Service) entity(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	respBody, err := s.api.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var envelope entityEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return envelope.Data, nil
}
