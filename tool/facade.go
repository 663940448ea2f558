// Package tool implements the tool facade (C10): a thin input-schema check
// and URL/body shaping layer over the client retry loop (C9), the surface
// spec.md §1 calls "a drop-in fetch/middleware pair ... for agentic
// clients". Grounded on the teacher's go/extensions/bazaar schema-validation
// style (gojsonschema over a declared JSON Schema) and go/mcp's tool
// declaration shape.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	gatekeeper "github.com/x402pay/gatekeeper"
	x402client "github.com/x402pay/gatekeeper/client"
)

// Declaration describes one priced tool endpoint: its input schema and how
// to shape a call against it.
type Declaration struct {
	Name         string
	Description  string
	InputSchema  map[string]interface{} // JSON Schema; "required" is read for the pre-check
	Endpoint     string
	Method       string
	FetchOptions map[string]string // extra static headers
}

// Result is what Invoke returns to its caller.
type Result struct {
	OK     bool
	Status int
	Data   interface{}
}

// Facade invokes Declarations over an http.Client already wrapped with the
// payment retry loop (see client.Wrap).
type Facade struct {
	HTTPClient *http.Client
}

// NewFacade builds a Facade whose requests pay x402 challenges via payer.
func NewFacade(payer gatekeeper.Payer, maxRetries int) *Facade {
	return &Facade{HTTPClient: x402client.Wrap(nil, payer, maxRetries)}
}

// Invoke runs the pre-check, shapes the request per spec.md §4.10, executes
// it through the payment-aware client, and decodes the response.
func (f *Facade) Invoke(ctx context.Context, decl Declaration, input map[string]interface{}) (Result, error) {
	if err := checkRequired(decl.InputSchema, input); err != nil {
		return Result{}, err
	}

	method := strings.ToUpper(decl.Method)
	if method == "" {
		method = http.MethodGet
	}

	var req *http.Request
	var err error
	switch method {
	case http.MethodGet, http.MethodDelete:
		u, parseErr := url.Parse(decl.Endpoint)
		if parseErr != nil {
			return Result{}, fmt.Errorf("invalid endpoint %q: %w", decl.Endpoint, parseErr)
		}
		q := u.Query()
		for k, v := range input {
			q.Set(k, fmt.Sprintf("%v", v))
		}
		u.RawQuery = q.Encode()
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
	default:
		body, marshalErr := json.Marshal(input)
		if marshalErr != nil {
			return Result{}, fmt.Errorf("failed to encode input: %w", marshalErr)
		}
		req, err = http.NewRequestWithContext(ctx, method, decl.Endpoint, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range decl.FetchOptions {
		req.Header.Set(k, v)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	result := Result{OK: resp.StatusCode >= 200 && resp.StatusCode < 300, Status: resp.StatusCode}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var data interface{}
		if jsonErr := json.Unmarshal(payload, &data); jsonErr == nil {
			result.Data = data
			return result, nil
		}
	}
	result.Data = string(payload)
	return result, nil
}

// checkRequired implements spec.md §4.10's pre-check: every name listed in
// inputSchema.required must be present and non-null in input. It uses
// gojsonschema's own loader so "required" is read the same way full schema
// validation would, instead of hand-parsing the schema map.
func checkRequired(schema map[string]interface{}, input map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("invalid input schema: %w", err)
	}
	doc, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	for _, desc := range result.Errors() {
		if desc.Type() == "required" {
			if name, ok := desc.Details()["property"].(string); ok {
				return fmt.Errorf("Missing required field: %s", name)
			}
			return fmt.Errorf("Missing required field: %s", desc.Field())
		}
	}

	// gojsonschema's "required" check only enforces presence, not
	// non-nullness — {"city": null} passes it. Reject explicit nulls too.
	for _, name := range requiredFieldNames(schema) {
		if value, present := input[name]; present && value == nil {
			return fmt.Errorf("Missing required field: %s", name)
		}
	}
	return nil
}

func requiredFieldNames(schema map[string]interface{}) []string {
	raw, ok := schema["required"].([]interface{})
	if !ok {
		return nil
	}
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	return names
}
