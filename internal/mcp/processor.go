// Package mcp exposes the line reader as an MCP tool over JSON-RPC.
package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "read-lines/internal/errors"
	"read-lines/internal/models"
	"read-lines/internal/service"
)

// MCP method and tool names.
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"

	ToolReadLines = "read_lines"

	ProtocolVersion = "2024-11-05"
)

// ToolCallParams represents the parameters for a tool call.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// IsMCPMethod reports whether method is handled by MCPProcessor.
func IsMCPMethod(method string) bool {
	switch method {
	case MethodInitialize, MethodToolsList, MethodToolsCall:
		return true
	}
	return false
}

// MCPProcessor handles MCP requests.
type MCPProcessor struct {
	service service.LineReaderService
}

// NewMCPProcessor creates a new MCPProcessor.
func NewMCPProcessor(svc service.LineReaderService) *MCPProcessor {
	return &MCPProcessor{
		service: svc,
	}
}

// ProcessRequest handles a JSON-RPC request and returns an MCPToolResult or a JSONRPCError.
func (p *MCPProcessor) ProcessRequest(req models.JSONRPCRequest) (*models.MCPToolResult, *models.JSONRPCError) {
	switch req.Method {
	case MethodInitialize:
		return p.jsonResult(models.InitializeResponse{
			ProtocolVersion: ProtocolVersion,
			ServerInfo: models.ServerInfo{
				Name:        "read-lines",
				Version:     "1.0.0",
				Description: "Prints a range of lines from a text file",
			},
		})
	case MethodToolsList:
		return p.jsonResult(models.ToolsListResponse{Tools: []models.ToolDefinition{readLinesTool()}})
	case MethodToolsCall:
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, apperrors.ToJSONRPCError(apperrors.NewInvalidParamsError("Invalid parameters for tools/call: "+err.Error(), nil))
		}
		return p.handleToolCall(params.Name, params.Arguments)
	default:
		return nil, apperrors.ToJSONRPCError(apperrors.NewMethodNotFoundError(req.Method))
	}
}

func readLinesTool() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        ToolReadLines,
		Description: "Returns count lines of a file starting at the 1-based start_line, with their original line endings.",
		ArgumentsSchema: models.Schema{
			"type": "object",
			"properties": map[string]interface{}{
				"file":       map[string]interface{}{"type": "string", "description": "Path relative to the served directory."},
				"start_line": map[string]interface{}{"type": "integer", "minimum": 1},
				"count":      map[string]interface{}{"type": "integer"},
			},
			"required": []string{"file", "start_line", "count"},
		},
		ResponseSchema: models.Schema{"type": "string"},
		Annotations:    models.ToolAnnotations{ReadOnlyHint: true, DestructiveHint: false},
	}
}

func (p *MCPProcessor) jsonResult(v interface{}) (*models.MCPToolResult, *models.JSONRPCError) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.ToJSONRPCError(apperrors.NewInternalError("failed to marshal result: " + err.Error()))
	}
	return textResult(string(body), false), nil
}

func textResult(text string, isError bool) *models.MCPToolResult {
	return &models.MCPToolResult{
		Content: []models.MCPToolContent{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// handleToolCall dispatches a tool call by name.
func (p *MCPProcessor) handleToolCall(toolName string, toolArgs json.RawMessage) (*models.MCPToolResult, *models.JSONRPCError) {
	switch toolName {
	case ToolReadLines:
		var readParams models.ReadLinesRequest
		if err := json.Unmarshal(toolArgs, &readParams); err != nil {
			return nil, apperrors.ToJSONRPCError(apperrors.NewInvalidParamsError("Invalid parameters for read_lines: "+err.Error(), nil))
		}
		resp, serviceErr := p.service.ReadLines(readParams)
		if serviceErr != nil {
			return textResult(p.formatToolError(serviceErr), true), nil
		}
		return textResult(p.formatReadLinesResult(readParams.File, resp), false), nil
	default:
		return textResult("Error: Unknown tool '"+toolName+"'.", true), nil
	}
}

// formatReadLinesResult renders a read as a header line, a blank line and the content.
// Not-found and range-exceeded outcomes render as their diagnostic message.
func (p *MCPProcessor) formatReadLinesResult(filename string, resp *models.ReadLinesResponse) string {
	if resp.Outcome != models.OutcomeOK {
		return resp.Message
	}
	var builder strings.Builder
	if resp.RangeReturned != nil {
		builder.WriteString(fmt.Sprintf("File: %s (lines %d-%d of %d total)\n\n",
			filename, resp.RangeReturned.StartLine, resp.RangeReturned.EndLine, resp.TotalLines))
	} else {
		builder.WriteString(fmt.Sprintf("File: %s (no lines of %d total)\n\n", filename, resp.TotalLines))
	}
	builder.WriteString(resp.Content)
	return builder.String()
}

// formatToolError formats a fault as "Error: <message> (Code: <code>)".
func (p *MCPProcessor) formatToolError(serviceErr *models.ErrorDetail) string {
	if serviceErr == nil {
		return "Error: An unexpected error occurred, but no details were provided."
	}
	return fmt.Sprintf("Error: %s (Code: %d)", serviceErr.Message, serviceErr.Code)
}
