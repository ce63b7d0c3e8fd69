package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	apperrors "read-lines/internal/errors"
	"read-lines/internal/models"
)

// MockLineReaderService is a mock implementation of service.LineReaderService.
type MockLineReaderService struct {
	ReadLinesFunc func(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail)
}

func (m *MockLineReaderService) ReadLines(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail) {
	if m.ReadLinesFunc != nil {
		return m.ReadLinesFunc(req)
	}
	return &models.ReadLinesResponse{Outcome: models.OutcomeOK, Lines: []string{}}, nil
}

func TestMCPProcessor_Initialize(t *testing.T) {
	processor := NewMCPProcessor(&MockLineReaderService{})

	req := models.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "initialize",
		ID:      "1",
	}

	result, rpcErr := processor.ProcessRequest(req)
	if rpcErr != nil {
		t.Fatalf("ProcessRequest returned an RPC error: %v", rpcErr)
	}
	if result == nil {
		t.Fatalf("ProcessRequest returned a nil result")
	}
	if result.IsError {
		t.Fatalf("MCPToolResult indicates an error: %s", result.Content[0].Text)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("Unexpected content structure: %+v", result.Content)
	}

	var initResp models.InitializeResponse
	if err := json.Unmarshal([]byte(result.Content[0].Text), &initResp); err != nil {
		t.Fatalf("Failed to unmarshal InitializeResponse: %v. JSON: %s", err, result.Content[0].Text)
	}

	if initResp.ProtocolVersion != "2024-11-05" {
		t.Errorf("Expected ProtocolVersion '2024-11-05', got '%s'", initResp.ProtocolVersion)
	}

	expectedServerInfo := models.ServerInfo{
		Name:        "read-lines",
		Version:     "1.0.0",
		Description: "Prints a range of lines from a text file",
	}
	if initResp.ServerInfo != expectedServerInfo {
		t.Errorf("Expected ServerInfo %+v, got %+v", expectedServerInfo, initResp.ServerInfo)
	}
	if !strings.Contains(result.Content[0].Text, `"tools":{}`) {
		t.Errorf("Expected empty tools capability object, got %s", result.Content[0].Text)
	}
}

func TestMCPProcessor_ToolsList(t *testing.T) {
	processor := NewMCPProcessor(&MockLineReaderService{})

	req := models.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "tools/list",
		ID:      "2",
	}

	result, rpcErr := processor.ProcessRequest(req)
	if rpcErr != nil {
		t.Fatalf("ProcessRequest returned an RPC error: %v", rpcErr)
	}
	if result.IsError {
		t.Fatalf("MCPToolResult indicates an error: %s", result.Content[0].Text)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("Unexpected content structure: %+v", result.Content)
	}

	var listResp models.ToolsListResponse
	if err := json.Unmarshal([]byte(result.Content[0].Text), &listResp); err != nil {
		t.Fatalf("Failed to unmarshal ToolsListResponse: %v. JSON: %s", err, result.Content[0].Text)
	}

	if len(listResp.Tools) != 1 {
		t.Fatalf("Expected 1 tool, got %d", len(listResp.Tools))
	}

	tool := listResp.Tools[0]
	if tool.Name != "read_lines" {
		t.Errorf("Unexpected tool found: %s", tool.Name)
	}
	if tool.Description == "" {
		t.Errorf("For tool %s, description is empty", tool.Name)
	}
	if !tool.Annotations.ReadOnlyHint || tool.Annotations.DestructiveHint {
		t.Errorf("For tool %s, expected read-only and non-destructive, got %+v", tool.Name, tool.Annotations)
	}
	if tool.ArgumentsSchema == nil || tool.ArgumentsSchema["type"] != "object" {
		t.Errorf("For tool %s, ArgumentsSchema type is not 'object' or missing", tool.Name)
	}
	props, ok := tool.ArgumentsSchema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("For tool %s, ArgumentsSchema has no properties", tool.Name)
	}
	for _, name := range []string{"file", "start_line", "count"} {
		if _, ok := props[name]; !ok {
			t.Errorf("For tool %s, ArgumentsSchema is missing property %s", tool.Name, name)
		}
	}
	if tool.ResponseSchema == nil || tool.ResponseSchema["type"] != "string" {
		t.Errorf("For tool %s, ResponseSchema type is not 'string' or missing", tool.Name)
	}
}

func TestFormatReadLinesResult(t *testing.T) {
	p := &MCPProcessor{} // Formatting functions don't depend on service state

	tests := []struct {
		name     string
		resp     *models.ReadLinesResponse
		expected string
	}{
		{
			name: "range",
			resp: &models.ReadLinesResponse{
				Outcome: models.OutcomeOK, Content: "Line 2\nLine 3\n", TotalLines: 5,
				RangeReturned: &models.RangeReturned{StartLine: 2, EndLine: 3},
			},
			expected: "File: ranged.txt (lines 2-3 of 5 total)\n\nLine 2\nLine 3\n",
		},
		{
			name: "last line without terminator",
			resp: &models.ReadLinesResponse{
				Outcome: models.OutcomeOK, Content: "tail", TotalLines: 1,
				RangeReturned: &models.RangeReturned{StartLine: 1, EndLine: 1},
			},
			expected: "File: ranged.txt (lines 1-1 of 1 total)\n\ntail",
		},
		{
			name:     "zero count",
			resp:     &models.ReadLinesResponse{Outcome: models.OutcomeOK, TotalLines: 5},
			expected: "File: ranged.txt (no lines of 5 total)\n\n",
		},
		{
			name:     "file not found",
			resp:     &models.ReadLinesResponse{Outcome: models.OutcomeFileNotFound, Message: "File ranged.txt not found."},
			expected: "File ranged.txt not found.",
		},
		{
			name:     "range exceeded",
			resp:     &models.ReadLinesResponse{Outcome: models.OutcomeRangeExceeded, Message: "Start line 10 is beyond file length.", TotalLines: 5},
			expected: "Start line 10 is beyond file length.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := p.formatReadLinesResult("ranged.txt", tt.resp); result != tt.expected {
				t.Errorf("formatReadLinesResult: expected\n'%s'\ngot\n'%s'", tt.expected, result)
			}
		})
	}
}

func TestFormatToolError(t *testing.T) {
	p := &MCPProcessor{}

	errDetail := &models.ErrorDetail{
		Code:    apperrors.CodeFileSystemError,
		Message: "Permission denied for file 'specific.txt'",
		Data:    map[string]string{"filename": "specific.txt"},
	}
	expectedError := fmt.Sprintf("Error: Permission denied for file 'specific.txt' (Code: %d)", apperrors.CodeFileSystemError)
	if result := p.formatToolError(errDetail); result != expectedError {
		t.Errorf("formatToolError: expected '%s', got '%s'", expectedError, result)
	}

	expectedNilError := "Error: An unexpected error occurred, but no details were provided."
	if result := p.formatToolError(nil); result != expectedNilError {
		t.Errorf("formatToolError with nil: expected '%s', got '%s'", expectedNilError, result)
	}
}

func TestMCPProcessor_HandleToolCall_Errors(t *testing.T) {
	mockService := &MockLineReaderService{
		ReadLinesFunc: func(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail) {
			return nil, &models.ErrorDetail{Code: 124, Message: "service read error"}
		},
	}
	processor := NewMCPProcessor(mockService)

	tests := []struct {
		name          string
		toolName      string
		toolArgs      json.RawMessage
		expectedError string
		expectRPCErr  bool
	}{
		{
			name:          "read_lines with service error",
			toolName:      "read_lines",
			toolArgs:      json.RawMessage(`{"file":"test.txt","start_line":1,"count":1}`),
			expectedError: "Error: service read error (Code: 124)",
		},
		{
			name:          "unknown tool",
			toolName:      "edit_file",
			toolArgs:      json.RawMessage(`{}`),
			expectedError: "Error: Unknown tool 'edit_file'.",
		},
		{
			name:          "read_lines with bad params",
			toolName:      "read_lines",
			toolArgs:      json.RawMessage(`123`),
			expectedError: "Invalid parameters for read_lines",
			expectRPCErr:  true,
		},
		{
			name:          "read_lines with wrong field type",
			toolName:      "read_lines",
			toolArgs:      json.RawMessage(`{"file":"a.txt","start_line":"two"}`),
			expectedError: "Invalid parameters for read_lines",
			expectRPCErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, rpcErr := processor.handleToolCall(tt.toolName, tt.toolArgs)
			if tt.expectRPCErr {
				if rpcErr == nil {
					t.Fatalf("Expected RPC error, got nil. Result: %+v", result)
				}
				if rpcErr.Code != apperrors.CodeInvalidParams {
					t.Errorf("Expected code %d, got %d", apperrors.CodeInvalidParams, rpcErr.Code)
				}
				if !strings.Contains(rpcErr.Message, tt.expectedError) {
					t.Errorf("Expected RPC error message to contain '%s', got '%s'", tt.expectedError, rpcErr.Message)
				}
				return
			}
			if rpcErr != nil {
				t.Fatalf("Unexpected RPC error: %v", rpcErr)
			}
			if !result.IsError {
				t.Errorf("Expected MCPToolResult to be an error, but IsError is false.")
			}
			if len(result.Content) == 0 || result.Content[0].Text != tt.expectedError {
				t.Errorf("Expected error content '%s', got %+v", tt.expectedError, result.Content)
			}
		})
	}
}

func TestMCPProcessor_ProcessRequest_ToolsCall_ReadLines(t *testing.T) {
	var got models.ReadLinesRequest
	mockService := &MockLineReaderService{
		ReadLinesFunc: func(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail) {
			got = req
			return &models.ReadLinesResponse{
				Outcome:       models.OutcomeOK,
				Lines:         []string{"two\n", "three\n"},
				Content:       "two\nthree\n",
				TotalLines:    3,
				RangeReturned: &models.RangeReturned{StartLine: 2, EndLine: 3},
			}, nil
		},
	}
	processor := NewMCPProcessor(mockService)

	argsJSON := `{"file":"alpha.txt","start_line":2,"count":5}`
	paramsJSON := fmt.Sprintf(`{"name":"read_lines", "arguments": %s}`, argsJSON)

	rpcReq := models.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "tools/call",
		Params:  json.RawMessage(paramsJSON),
		ID:      "test-id-read",
	}

	result, rpcErr := processor.ProcessRequest(rpcReq)
	if rpcErr != nil {
		t.Fatalf("ProcessRequest(tools/call read_lines) returned RPC error: %v", rpcErr)
	}
	if result.IsError {
		t.Fatalf("ProcessRequest(tools/call read_lines) result IsError=true: %s", result.Content[0].Text)
	}
	if want := (models.ReadLinesRequest{File: "alpha.txt", StartLine: 2, Count: 5}); got != want {
		t.Errorf("service received %+v, want %+v", got, want)
	}
	expected := "File: alpha.txt (lines 2-3 of 3 total)\n\ntwo\nthree\n"
	if result.Content[0].Text != expected {
		t.Errorf("Expected read_lines output\n'%s'\ngot\n'%s'", expected, result.Content[0].Text)
	}
}

func TestMCPProcessor_ProcessRequest_Errors(t *testing.T) {
	processor := NewMCPProcessor(&MockLineReaderService{})

	_, rpcErr := processor.ProcessRequest(models.JSONRPCRequest{JSONRPC: "2.0", Method: "tools/call", Params: json.RawMessage(`[]`), ID: 1})
	if rpcErr == nil || rpcErr.Code != apperrors.CodeInvalidParams {
		t.Errorf("tools/call with bad params: expected invalid params, got %+v", rpcErr)
	}

	_, rpcErr = processor.ProcessRequest(models.JSONRPCRequest{JSONRPC: "2.0", Method: "resources/list", ID: 2})
	if rpcErr == nil || rpcErr.Code != apperrors.CodeMethodNotFound {
		t.Errorf("unknown method: expected method not found, got %+v", rpcErr)
	}
}

func TestIsMCPMethod(t *testing.T) {
	for _, m := range []string{"initialize", "tools/list", "tools/call"} {
		if !IsMCPMethod(m) {
			t.Errorf("IsMCPMethod(%q) = false, want true", m)
		}
	}
	for _, m := range []string{"read_lines", "", "tools/other"} {
		if IsMCPMethod(m) {
			t.Errorf("IsMCPMethod(%q) = true, want false", m)
		}
	}
}
