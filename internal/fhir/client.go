package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/clarahealth/qrda-export/internal/fhir/r4"
	"github.com/clarahealth/qrda-export/pkg/circuitbreaker"
)

// ClientConfig holds configuration for the FHIR REST client.
type ClientConfig struct {
	// BaseURL is the FHIR server base, e.g. https://fhir.example.com/r4
	BaseURL string
	// BearerToken is sent as Authorization: Bearer when set
	BearerToken string
	// Timeout is the per-request timeout
	Timeout time.Duration
}

// DefaultClientConfig returns defaults suitable for an in-cluster FHIR server.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 15 * time.Second,
	}
}

// ReadObserver counts FHIR reads by resource type and outcome. Satisfied by
// the application metrics registry.
type ReadObserver interface {
	ObserveFHIRRead(resource, outcome string)
}

// Client is a ClinicalStore backed by a FHIR REST server. Outbound calls run
// through a circuit breaker so a failing FHIR server degrades fast instead of
// stalling every export worker.
type Client struct {
	config  ClientConfig
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	tracer  trace.Tracer
	reads   ReadObserver
}

// NewClient creates a FHIR REST client.
func NewClient(cfg ClientConfig, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: transport},
		breaker: breaker,
		logger:  logger,
		tracer:  otel.Tracer("fhir-client"),
	}
}

// SetReadObserver attaches a read counter. Must be called before the client
// is shared across goroutines.
func (c *Client) SetReadObserver(obs ReadObserver) {
	c.reads = obs
}

// ReadPatient implements ClinicalStore.
func (c *Client) ReadPatient(ctx context.Context, id string) (*r4.Patient, error) {
	ctx, span := c.tracer.Start(ctx, "fhir_read_patient",
		trace.WithAttributes(attribute.String("patient_id", id)))
	defer span.End()

	body, err := c.get(ctx, "Patient/"+url.PathEscape(id), nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var patient r4.Patient
	if err := json.Unmarshal(body, &patient); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	return &patient, nil
}

// SearchEncounters implements ClinicalStore. Diagnosis conditions referenced
// by the matched encounters are pulled in the same query batch via _include.
func (c *Client) SearchEncounters(ctx context.Context, patientID string, dr DateRange) ([]r4.Encounter, []r4.Condition, error) {
	ctx, span := c.tracer.Start(ctx, "fhir_search_encounters",
		trace.WithAttributes(attribute.String("patient_id", patientID)))
	defer span.End()

	params := url.Values{}
	params.Set("subject", "Patient/"+patientID)
	params.Add("date", "ge"+dr.Start)
	params.Add("date", "le"+dr.End)
	params.Set("_sort", "date")
	params.Set("_include", "Encounter:diagnosis")

	bundle, err := c.search(ctx, "Encounter", params)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	var encounters []r4.Encounter
	var conditions []r4.Condition
	for i := range bundle.Entry {
		entry := &bundle.Entry[i]
		resourceType, err := entry.ResourceType()
		if err != nil {
			return nil, nil, err
		}
		switch resourceType {
		case "Encounter":
			var enc r4.Encounter
			if err := json.Unmarshal(entry.Resource, &enc); err != nil {
				return nil, nil, fmt.Errorf("decode encounter: %w", err)
			}
			encounters = append(encounters, enc)
		case "Condition":
			var cond r4.Condition
			if err := json.Unmarshal(entry.Resource, &cond); err != nil {
				return nil, nil, fmt.Errorf("decode condition: %w", err)
			}
			conditions = append(conditions, cond)
		default:
			c.logger.Debug("ignoring unexpected resource in encounter search",
				zap.String("resource_type", resourceType))
		}
	}

	span.SetAttributes(
		attribute.Int("encounters", len(encounters)),
		attribute.Int("conditions", len(conditions)))
	return encounters, conditions, nil
}

// SearchProcedures implements ClinicalStore.
func (c *Client) SearchProcedures(ctx context.Context, patientID, categoryCode string, dr DateRange) ([]r4.Procedure, error) {
	ctx, span := c.tracer.Start(ctx, "fhir_search_procedures",
		trace.WithAttributes(
			attribute.String("patient_id", patientID),
			attribute.String("category", categoryCode)))
	defer span.End()

	params := url.Values{}
	params.Set("category", r4.SystemSNOMED+"|"+categoryCode)
	params.Set("subject", "Patient/"+patientID)
	params.Add("date", "ge"+dr.Start)
	params.Add("date", "le"+dr.End)
	params.Set("_sort", "date")

	bundle, err := c.search(ctx, "Procedure", params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var procedures []r4.Procedure
	for i := range bundle.Entry {
		var proc r4.Procedure
		if err := json.Unmarshal(bundle.Entry[i].Resource, &proc); err != nil {
			return nil, fmt.Errorf("decode procedure: %w", err)
		}
		procedures = append(procedures, proc)
	}
	return procedures, nil
}

// SearchCoverages implements ClinicalStore. No date filter is applied:
// coverage periods are reported as-is even when outside the measure window.
func (c *Client) SearchCoverages(ctx context.Context, beneficiaryID string) ([]r4.Coverage, error) {
	ctx, span := c.tracer.Start(ctx, "fhir_search_coverages",
		trace.WithAttributes(attribute.String("patient_id", beneficiaryID)))
	defer span.End()

	params := url.Values{}
	params.Set("beneficiary", "Patient/"+beneficiaryID)

	bundle, err := c.search(ctx, "Coverage", params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var coverages []r4.Coverage
	for i := range bundle.Entry {
		var cov r4.Coverage
		if err := json.Unmarshal(bundle.Entry[i].Resource, &cov); err != nil {
			return nil, fmt.Errorf("decode coverage: %w", err)
		}
		coverages = append(coverages, cov)
	}
	return coverages, nil
}

// search issues a FHIR search and decodes the result bundle.
func (c *Client) search(ctx context.Context, resourceType string, params url.Values) (*r4.Bundle, error) {
	body, err := c.get(ctx, resourceType, params)
	if err != nil {
		return nil, err
	}

	var bundle r4.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("decode %s bundle: %w", resourceType, err)
	}
	return &bundle, nil
}

// get performs a GET against the FHIR server through the circuit breaker.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.config.BaseURL + "/" + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	do := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/fhir+json")
		if c.config.BearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
			return nil, ErrNotFound
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("fhir: %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
		}
		return body, nil
	}

	var result interface{}
	var err error
	if c.breaker != nil {
		result, err = c.breaker.Execute(ctx, do)
	} else {
		result, err = do()
	}
	c.observe(path, err)
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) observe(path string, err error) {
	if c.reads == nil {
		return
	}
	resource := path
	if i := strings.IndexByte(path, '/'); i >= 0 {
		resource = path[:i]
	}
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	c.reads.ObserveFHIRRead(resource, outcome)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
