// mcp.go exposes a Facade as an MCP tool, the "agentic clients" surface
// spec.md §1 names explicitly. Grounded on the teacher's examples/go/
// servers/mcp/simple.go: a plain modelcontextprotocol/go-sdk server with
// AddTool, translating CallToolRequest/CallToolResult to Facade.Invoke.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCPTool adds decl to server as a single MCP tool backed by
// facade. The tool's declared InputSchema becomes the MCP tool's
// InputSchema, converted from the plain map Declaration carries into the
// *jsonschema.Schema the SDK's Tool type requires.
func RegisterMCPTool(server *mcp.Server, facade *Facade, decl Declaration) {
	schema, err := toJSONSchema(decl.InputSchema)
	if err != nil {
		panic(fmt.Sprintf("tool: invalid input schema for %q: %v", decl.Name, err))
	}

	server.AddTool(&mcp.Tool{
		Name:        decl.Name,
		Description: decl.Description,
		InputSchema: schema,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("invalid tool arguments: %w", err)), nil
			}
		}

		result, err := facade.Invoke(ctx, decl, args)
		if err != nil {
			return errorResult(err), nil
		}

		body, err := json.Marshal(result.Data)
		if err != nil {
			return errorResult(err), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
			IsError: !result.OK,
		}, nil
	})
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// toJSONSchema round-trips a Declaration's plain-map InputSchema through
// JSON into the *jsonschema.Schema type the SDK's Tool requires. A nil
// schema map yields a nil schema (an MCP tool with no declared input).
func toJSONSchema(schema map[string]interface{}) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input schema: %w", err)
	}
	var out jsonschema.Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}
	return &out, nil
}
