// Package server exposes the compensation comparison over a JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/comp-calculator/internal/config"
	"github.com/iwvelando/comp-calculator/internal/forecast"
	"github.com/iwvelando/comp-calculator/internal/schemas"
	"github.com/iwvelando/comp-calculator/internal/session"
	"github.com/iwvelando/comp-calculator/pkg/constants"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/iwvelando/comp-calculator/pkg/output"
	"github.com/iwvelando/comp-calculator/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures the handler returned by NewHandler.
type Options struct {
	MaxBodySize int64
	Version     string
	Defaults    *config.Configuration
	Sessions    session.Store
}

type handler struct {
	logger      *zap.Logger
	engine      *forecast.Engine
	maxBodySize int64
	version     string
	defaults    *config.Configuration
	sessions    session.Store
}

// NewHandler constructs the HTTP handler that serves the comparison API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxUploadSizeBytes
	}
	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}
	if opts.Defaults == nil {
		opts.Defaults = &config.Configuration{}
		opts.Defaults.ApplyDefaults()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore(logger, constants.DefaultSessionTTLMinutes*time.Minute)
	}

	h := &handler{
		logger:      logger,
		engine:      forecast.NewEngine(logger),
		maxBodySize: opts.MaxBodySize,
		version:     trimmedVersion,
		defaults:    opts.Defaults,
		sessions:    opts.Sessions,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/project", h.handleProject)
	mux.HandleFunc("/api/tax", h.handleTax)
	mux.HandleFunc("/api/tax-rates", h.handleTaxRates)
	mux.HandleFunc("/api/defaults", h.handleDefaults)
	mux.HandleFunc("/api/export", h.handleExport)
	mux.HandleFunc("/api/version", h.handleVersion)
	return mux
}

type compareRequest struct {
	Current  finance.Package   `json:"current"`
	New      finance.Package   `json:"new"`
	TaxRates *finance.TaxRates `json:"taxRates,omitempty"`
	Horizon  int               `json:"horizon,omitempty"`
}

type compareResponse struct {
	Comparison *forecast.Comparison `json:"comparison"`
	Summary    output.Summary       `json:"summary"`
	TaxRates   finance.TaxRates     `json:"taxRates"`
	Warnings   []string             `json:"warnings,omitempty"`
	Error      string               `json:"error,omitempty"`
	Duration   string               `json:"duration"`
}

type projectRequest struct {
	Package  finance.Package   `json:"package"`
	Year     int               `json:"year"`
	TaxRates *finance.TaxRates `json:"taxRates,omitempty"`
}

type taxRequest struct {
	GrossValue  float64            `json:"grossValue"`
	EquityType  finance.EquityType `json:"equityType"`
	StrikePrice *float64           `json:"strikePrice,omitempty"`
	Shares      *float64           `json:"shares,omitempty"`
	TaxRates    *finance.TaxRates  `json:"taxRates,omitempty"`
}

type taxResponse struct {
	Tax      float64          `json:"tax"`
	Net      float64          `json:"net"`
	TaxRates finance.TaxRates `json:"taxRates"`
}

type taxRatesResponse struct {
	SessionID string           `json:"sessionId,omitempty"`
	Source    string           `json:"source"`
	TaxRates  finance.TaxRates `json:"taxRates"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []finance.FieldError `json:"fields,omitempty"`
	Schema []schemas.FieldError `json:"schema,omitempty"`
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var req compareRequest
	if !h.decodeValidated(w, r, schemas.CompareRequest, &req, op) {
		return
	}

	rates := h.resolveTaxRates(r, req.TaxRates)
	horizon := req.Horizon
	if horizon == 0 {
		horizon = h.defaults.Projection.Years
	}

	result, err := h.engine.Compare(req.Current, req.New, rates, horizon)
	if err != nil && !errors.Is(err, finance.ErrOutOfRange) {
		h.respondComputeError(w, err, op)
		return
	}

	response := compareResponse{
		Comparison: result,
		Summary:    output.Summarize(result),
		TaxRates:   rates,
		Duration:   time.Since(start).String(),
	}
	response.Warnings = append(response.Warnings, validation.PackageWarnings(req.Current, result.Horizon)...)
	response.Warnings = append(response.Warnings, validation.PackageWarnings(req.New, result.Horizon)...)

	status := http.StatusOK
	if err != nil {
		// Blocked years are reported, never filled with zeros.
		status = http.StatusUnprocessableEntity
		response.Error = err.Error()
	}

	h.logger.Info("comparison computed",
		zap.String("op", op),
		zap.Int("years", len(result.Years)),
		zap.Ints("blocked", result.Blocked),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, status, response)
}

func (h *handler) handleProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProject"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req projectRequest
	if !h.decodeValidated(w, r, schemas.ProjectRequest, &req, op) {
		return
	}

	breakdown, err := h.engine.ProjectYear(req.Package, req.Year, h.resolveTaxRates(r, req.TaxRates))
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, breakdown)
}

func (h *handler) handleTax(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTax"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req taxRequest
	if !h.decodeValidated(w, r, schemas.TaxRequest, &req, op) {
		return
	}

	rates := h.resolveTaxRates(r, req.TaxRates)
	if err := finance.ValidateTaxRates(rates); err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	tax := finance.EstimateTax(req.GrossValue, req.EquityType, req.StrikePrice, req.Shares, rates)
	h.writeJSON(w, http.StatusOK, taxResponse{
		Tax:      tax,
		Net:      finance.NetValue(req.GrossValue, tax),
		TaxRates: rates,
	})
}

func (h *handler) handleTaxRates(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTaxRates"
	switch r.Method {
	case http.MethodGet:
		id := r.Header.Get(constants.SessionHeader)
		if rates, ok := h.sessions.Get(id); ok {
			h.writeJSON(w, http.StatusOK, taxRatesResponse{SessionID: id, Source: "session", TaxRates: rates})
			return
		}
		h.writeJSON(w, http.StatusOK, taxRatesResponse{Source: "default", TaxRates: h.defaults.TaxRates})

	case http.MethodPut:
		body, ok := h.readBody(w, r, op)
		if !ok {
			return
		}
		// Overrides are only type-checked; ranges are enforced when used.
		var rates finance.TaxRates
		if err := json.Unmarshal(body, &rates); err != nil {
			h.respondError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to decode tax rates: %v", err)}, op)
			return
		}

		id := r.Header.Get(constants.SessionHeader)
		if !session.ValidID(id) {
			id = session.NewID()
		}
		h.sessions.Put(id, rates)

		h.logger.Debug("tax rates stored",
			zap.String("op", op),
			zap.String("session", id),
		)
		w.Header().Set(constants.SessionHeader, id)
		h.writeJSON(w, http.StatusOK, taxRatesResponse{SessionID: id, Source: "session", TaxRates: rates})

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"taxRates":   h.defaults.TaxRates,
		"packages":   h.defaults.Packages,
		"equity":     h.defaults.Equity,
		"company":    h.defaults.Company,
		"projection": h.defaults.Projection,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to decode configuration: %v", err)}, op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to encode configuration: %v", err)}, op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// resolveTaxRates prefers rates sent with the request, then the session's
// stored overrides, then the configured defaults.
func (h *handler) resolveTaxRates(r *http.Request, explicit *finance.TaxRates) finance.TaxRates {
	if explicit != nil {
		return *explicit
	}
	if rates, ok := h.sessions.Get(r.Header.Get(constants.SessionHeader)); ok {
		return rates
	}
	return h.defaults.TaxRates
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				errorResponse{Error: fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize)}, op)
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to read request: %v", err)}, op)
		return nil, false
	}
	return body, true
}

func (h *handler) decodeValidated(w http.ResponseWriter, r *http.Request, schema string, dst interface{}, op string) bool {
	body, ok := h.readBody(w, r, op)
	if !ok {
		return false
	}

	if err := schemas.ValidateJSON(schema, body); err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			h.respondError(w, http.StatusBadRequest, errorResponse{Error: "request does not match schema", Schema: schemaErr.Errors}, op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: err.Error()}, op)
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to decode request: %v", err)}, op)
		return false
	}
	return true
}

func (h *handler) respondComputeError(w http.ResponseWriter, err error, op string) {
	var cfgErr *finance.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Fields: cfgErr.Fields}, op)
	case errors.Is(err, forecast.ErrInvalidHorizon):
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: err.Error()}, op)
	case errors.Is(err, finance.ErrOutOfRange):
		h.respondError(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}, op)
	default:
		h.respondError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()}, op)
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, resp errorResponse, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", resp.Error),
	)
	h.writeJSON(w, status, resp)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "projection", "taxRates", "equity", "company", "packages"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}
