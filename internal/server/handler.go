package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
	"github.com/go-tangra/go-tangra-osinfo/internal/store"
	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
)

// maxSystemInfoBytes bounds the body of a parse request.
const maxSystemInfoBytes = 1 << 20

const defaultPollWait = 25 * time.Second

const (
	OperationSubmitInventory     = "/osinfo.collector.v1.Collector/SubmitInventory"
	OperationListInventories     = "/osinfo.collector.v1.Collector/ListInventories"
	OperationGetInventory        = "/osinfo.collector.v1.Collector/GetInventory"
	OperationDeleteInventory     = "/osinfo.collector.v1.Collector/DeleteInventory"
	OperationGetLatestByHostname = "/osinfo.collector.v1.Collector/GetLatestByHostname"
	OperationParseSystemInfo     = "/osinfo.collector.v1.Collector/ParseSystemInfo"
	OperationPollCommands        = "/osinfo.collector.v1.Collector/PollCommands"
	OperationRefreshInventory    = "/osinfo.collector.v1.Collector/RefreshInventory"
	OperationListAgents          = "/osinfo.collector.v1.Collector/ListAgents"
)

// Handler serves the collector's HTTP API.
type Handler struct {
	store    *store.Store
	agents   *AgentRegistry
	metrics  *Metrics
	log      logrus.FieldLogger
	pollWait time.Duration
}

func NewHandler(s *store.Store, agents *AgentRegistry, metrics *Metrics, log logrus.FieldLogger) *Handler {
	return &Handler{
		store:    s,
		agents:   agents,
		metrics:  metrics,
		log:      log.WithField("package", "server"),
		pollWait: defaultPollWait,
	}
}

// RegisterRoutes mounts the API on srv. Every route runs the server's
// middleware chain.
func (h *Handler) RegisterRoutes(srv *kratoshttp.Server) {
	r := srv.Route("/")
	r.POST("/v1/inventories", h.submitInventory)
	r.GET("/v1/inventories", h.listInventories)
	r.GET("/v1/inventories/{id}", h.getInventory)
	r.DELETE("/v1/inventories/{id}", h.deleteInventory)
	r.GET("/v1/hosts/{hostname}/latest", h.getLatestByHostname)
	r.POST("/v1/hosts/{hostname}/refresh", h.refreshInventory)
	r.POST("/v1/systeminfo:parse", h.parseSystemInfo)
	r.GET("/v1/agents", h.listAgents)
	r.GET("/v1/agents/{client_id}/commands", h.pollCommands)
}

// serve runs fn through the middleware chain under operation and writes
// its result as the response body.
func serve(ctx kratoshttp.Context, operation string, in any, fn func(context.Context, any) (any, error)) error {
	kratoshttp.SetOperation(ctx, operation)
	out, err := ctx.Middleware(fn)(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (h *Handler) submitInventory(ctx kratoshttp.Context) error {
	var inv collector.Inventory
	if err := ctx.Bind(&inv); err != nil {
		return kerrors.BadRequest("INVALID_INVENTORY", err.Error())
	}
	return serve(ctx, OperationSubmitInventory, &inv, func(ctx context.Context, req any) (any, error) {
		return h.SubmitInventory(ctx, req.(*collector.Inventory))
	})
}

func (h *Handler) SubmitInventory(ctx context.Context, inv *collector.Inventory) (*convert.SubmitReply, error) {
	if inv.Hostname == "" {
		return nil, kerrors.BadRequest("HOSTNAME_REQUIRED", "hostname is required")
	}

	rec, err := convert.InventoryToRecord(inv)
	if err != nil {
		return nil, kerrors.InternalServer("CONVERT_FAILED", fmt.Sprintf("convert inventory: %v", err))
	}

	id, storedAt, err := h.store.Insert(ctx, rec)
	if err != nil {
		h.log.WithError(err).Error("Failed to store inventory")
		return nil, kerrors.InternalServer("STORE_FAILED", fmt.Sprintf("store inventory: %v", err))
	}

	h.metrics.submissions.WithLabelValues(rec.Family).Inc()
	h.log.WithFields(logrus.Fields{"id": id, "hostname": rec.Hostname, "family": rec.Family}).Info("Inventory stored")

	return &convert.SubmitReply{ID: id, StoredAt: storedAt}, nil
}

func (h *Handler) listInventories(ctx kratoshttp.Context) error {
	filter, err := listFilterFromQuery(ctx.Request().URL.Query())
	if err != nil {
		return kerrors.BadRequest("INVALID_QUERY", err.Error())
	}
	return serve(ctx, OperationListInventories, filter, func(ctx context.Context, req any) (any, error) {
		return h.ListInventories(ctx, req.(store.ListFilter))
	})
}

func (h *Handler) ListInventories(ctx context.Context, filter store.ListFilter) (*convert.ListReply, error) {
	records, total, err := h.store.List(ctx, filter)
	if err != nil {
		return nil, kerrors.InternalServer("LIST_FAILED", fmt.Sprintf("list inventories: %v", err))
	}

	summaries := make([]convert.Summary, len(records))
	for i := range records {
		summaries[i] = convert.RecordToSummary(&records[i])
	}
	return &convert.ListReply{Inventories: summaries, TotalCount: total}, nil
}

func listFilterFromQuery(q url.Values) (store.ListFilter, error) {
	filter := store.ListFilter{
		Hostname:   q.Get("hostname"),
		Family:     q.Get("family"),
		SystemUUID: q.Get("system_uuid"),
	}

	for key, dst := range map[string]**time.Time{
		"collected_after":  &filter.CollectedAfter,
		"collected_before": &filter.CollectedBefore,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", key, err)
		}
		*dst = &t
	}

	for key, dst := range map[string]*int{
		"page_size": &filter.PageSize,
		"page":      &filter.Page,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("%s: must be a non-negative integer", key)
		}
		*dst = n
	}

	return filter, nil
}

func (h *Handler) getInventory(ctx kratoshttp.Context) error {
	id := ctx.Vars().Get("id")
	return serve(ctx, OperationGetInventory, id, func(ctx context.Context, req any) (any, error) {
		return h.GetInventory(ctx, req.(string))
	})
}

func (h *Handler) GetInventory(ctx context.Context, id string) (*convert.InventoryReply, error) {
	rec, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kerrors.NotFound("INVENTORY_NOT_FOUND", fmt.Sprintf("inventory %s not found", id))
		}
		return nil, kerrors.InternalServer("GET_FAILED", fmt.Sprintf("get inventory: %v", err))
	}
	return inventoryReply(rec)
}

func (h *Handler) deleteInventory(ctx kratoshttp.Context) error {
	id := ctx.Vars().Get("id")
	return serve(ctx, OperationDeleteInventory, id, func(ctx context.Context, req any) (any, error) {
		return h.DeleteInventory(ctx, req.(string))
	})
}

func (h *Handler) DeleteInventory(ctx context.Context, id string) (*struct{}, error) {
	if err := h.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kerrors.NotFound("INVENTORY_NOT_FOUND", fmt.Sprintf("inventory %s not found", id))
		}
		return nil, kerrors.InternalServer("DELETE_FAILED", fmt.Sprintf("delete inventory: %v", err))
	}
	h.log.WithField("id", id).Info("Inventory deleted")
	return &struct{}{}, nil
}

func (h *Handler) getLatestByHostname(ctx kratoshttp.Context) error {
	hostname := ctx.Vars().Get("hostname")
	return serve(ctx, OperationGetLatestByHostname, hostname, func(ctx context.Context, req any) (any, error) {
		return h.GetLatestByHostname(ctx, req.(string))
	})
}

func (h *Handler) GetLatestByHostname(ctx context.Context, hostname string) (*convert.InventoryReply, error) {
	if hostname == "" {
		return nil, kerrors.BadRequest("HOSTNAME_REQUIRED", "hostname is required")
	}

	rec, err := h.store.GetLatestByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kerrors.NotFound("INVENTORY_NOT_FOUND", fmt.Sprintf("no inventory found for hostname %q", hostname))
		}
		return nil, kerrors.InternalServer("GET_FAILED", fmt.Sprintf("get latest inventory: %v", err))
	}
	return inventoryReply(rec)
}

func inventoryReply(rec *store.SnapshotRecord) (*convert.InventoryReply, error) {
	inv, err := convert.RecordToInventory(rec)
	if err != nil {
		return nil, kerrors.InternalServer("DECODE_FAILED", fmt.Sprintf("decode inventory: %v", err))
	}
	return &convert.InventoryReply{ID: rec.ID, StoredAt: rec.StoredAt, Inventory: inv}, nil
}

func (h *Handler) parseSystemInfo(ctx kratoshttp.Context) error {
	raw, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxSystemInfoBytes+1))
	if err != nil {
		return kerrors.BadRequest("INVALID_BODY", err.Error())
	}
	if len(raw) > maxSystemInfoBytes {
		return kerrors.BadRequest("BODY_TOO_LARGE", fmt.Sprintf("systeminfo output exceeds %d bytes", maxSystemInfoBytes))
	}
	return serve(ctx, OperationParseSystemInfo, raw, func(ctx context.Context, req any) (any, error) {
		return h.ParseSystemInfo(ctx, req.([]byte))
	})
}

// ParseSystemInfo parses raw systeminfo output sent by a client that does
// not run the agent.
func (h *Handler) ParseSystemInfo(_ context.Context, raw []byte) (*convert.ParseReply, error) {
	info, err := systeminfo.Parse(systeminfo.Decode(raw))
	if err != nil {
		h.metrics.parseFailures.WithLabelValues(parseFailureKind(err)).Inc()
		h.log.WithError(err).Debug("Rejected systeminfo output")
		return nil, kerrors.BadRequest("SYSTEMINFO_PARSE_FAILED", err.Error())
	}

	reply := &convert.ParseReply{SystemInfo: info}
	if edition, err := info.Edition(); err == nil {
		reply.Edition = edition
	}
	return reply, nil
}

// PollRequest identifies a polling agent and how long it is willing to wait.
type PollRequest struct {
	ClientID string
	Version  string
	Wait     time.Duration
}

func (h *Handler) pollCommands(ctx kratoshttp.Context) error {
	q := ctx.Request().URL.Query()
	req := &PollRequest{
		ClientID: ctx.Vars().Get("client_id"),
		Version:  q.Get("version"),
		Wait:     h.pollWait,
	}
	if v := q.Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return kerrors.BadRequest("INVALID_QUERY", "wait: must be a non-negative duration")
		}
		req.Wait = d
	}
	return serve(ctx, OperationPollCommands, req, func(ctx context.Context, in any) (any, error) {
		return h.PollCommands(ctx, in.(*PollRequest))
	})
}

func (h *Handler) PollCommands(ctx context.Context, req *PollRequest) (*convert.PollReply, error) {
	if req.ClientID == "" {
		return nil, kerrors.BadRequest("CLIENT_ID_REQUIRED", "client_id is required")
	}
	if !h.agents.IsConnected(req.ClientID) {
		h.log.WithFields(logrus.Fields{"client_id": req.ClientID, "version": req.Version}).Info("Agent connected")
	}
	return &convert.PollReply{Commands: h.agents.Poll(ctx, req.ClientID, req.Version, req.Wait)}, nil
}

func (h *Handler) refreshInventory(ctx kratoshttp.Context) error {
	hostname := ctx.Vars().Get("hostname")
	return serve(ctx, OperationRefreshInventory, hostname, func(ctx context.Context, req any) (any, error) {
		return h.RefreshInventory(ctx, req.(string))
	})
}

// RefreshInventory asks the agent polling as hostname to collect and push
// a fresh inventory.
func (h *Handler) RefreshInventory(_ context.Context, hostname string) (*convert.RefreshReply, error) {
	if hostname == "" {
		return nil, kerrors.BadRequest("HOSTNAME_REQUIRED", "hostname is required")
	}
	if !h.agents.IsConnected(hostname) {
		return nil, kerrors.NotFound("AGENT_NOT_CONNECTED", fmt.Sprintf("agent %q is not connected", hostname))
	}

	cmd := convert.Command{
		ID:       uuid.NewString(),
		Type:     convert.CommandRefresh,
		IssuedAt: time.Now().UTC(),
	}
	if err := h.agents.Send(hostname, cmd); err != nil {
		return nil, kerrors.InternalServer("SEND_FAILED", fmt.Sprintf("send refresh command: %v", err))
	}

	h.metrics.refreshes.Inc()
	h.log.WithFields(logrus.Fields{"command_id": cmd.ID, "hostname": hostname}).Info("Refresh command queued")

	return &convert.RefreshReply{Sent: true, CommandID: cmd.ID}, nil
}

func (h *Handler) listAgents(ctx kratoshttp.Context) error {
	return serve(ctx, OperationListAgents, nil, func(_ context.Context, _ any) (any, error) {
		return &convert.AgentsReply{Agents: h.agents.ListConnected()}, nil
	})
}
