package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"read-lines/internal/errors"
	"read-lines/internal/mcp"
	"read-lines/internal/models"
	"read-lines/internal/service"
)

// MethodReadLines is the JSON-RPC method name for a line range read.
const MethodReadLines = "read_lines"

// maxStdioLineBytes bounds a single request line.
const maxStdioLineBytes = 1024 * 1024

// StdioHandler handles JSON-RPC communication over standard input/output.
type StdioHandler struct {
	service   service.LineReaderService
	processor *mcp.MCPProcessor
	logger    zerolog.Logger
}

// NewStdioHandler creates a new StdioHandler.
func NewStdioHandler(svc service.LineReaderService, logger zerolog.Logger) *StdioHandler {
	return &StdioHandler{
		service:   svc,
		processor: mcp.NewMCPProcessor(svc),
		logger:    logger.With().Str("transport", "stdio").Logger(),
	}
}

func (h *StdioHandler) writeJSONRPCResponse(writer io.Writer, response models.JSONRPCResponse) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		h.logger.Error().Err(err).Interface("id", response.ID).Msg("error marshaling JSON-RPC response")
		errorResp := models.JSONRPCResponse{
			JSONRPC: models.JSONRPCVersion,
			ID:      response.ID,
			Error:   errors.ToJSONRPCError(errors.NewInternalError("Server error: failed to marshal response.")),
		}
		responseBytes, _ = json.Marshal(errorResp)
	}

	if _, err := fmt.Fprintln(writer, string(responseBytes)); err != nil {
		h.logger.Error().Err(err).Msg("error writing JSON-RPC response")
	}
}

// handle turns one decoded request into a response.
func (h *StdioHandler) handle(req models.JSONRPCRequest) models.JSONRPCResponse {
	resp := models.JSONRPCResponse{JSONRPC: models.JSONRPCVersion, ID: req.ID}

	if req.JSONRPC != models.JSONRPCVersion {
		resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("Invalid JSON-RPC version. Must be '2.0'."))
		return resp
	}
	if req.Method == "" {
		resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("Method not specified."))
		return resp
	}

	// initialize, tools/list and tools/call
	if mcp.IsMCPMethod(req.Method) {
		result, rpcErr := h.processor.ProcessRequest(req)
		if rpcErr != nil {
			if rpcErr.Data != nil {
				rpcErr.Data.Operation = req.Method
			}
			resp.Error = rpcErr
			return resp
		}
		resp.Result = result
		return resp
	}

	var result interface{}
	var serviceErr *models.ErrorDetail

	switch req.Method {
	case MethodReadLines:
		var params models.ReadLinesRequest
		if err := json.Unmarshal(req.Params, &params); err != nil {
			serviceErr = errors.NewInvalidParamsError(fmt.Sprintf("Invalid params for read_lines: %v", err), nil)
		} else {
			result, serviceErr = h.service.ReadLines(params)
		}
	default:
		serviceErr = errors.NewMethodNotFoundError(req.Method)
	}

	if serviceErr != nil {
		rpcError := errors.ToJSONRPCError(serviceErr)
		if rpcError.Data != nil {
			rpcError.Data.Operation = req.Method
		}
		resp.Error = rpcError
		return resp
	}
	resp.Result = result
	return resp
}

// Start processes newline-delimited JSON-RPC requests from input until EOF,
// writing one response line per request to output.
func (h *StdioHandler) Start(input io.Reader, output io.Writer) error {
	h.logger.Info().Msg("starting stdio JSON-RPC handler")
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStdioLineBytes)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(bytes.TrimSpace(lineBytes)) == 0 {
			continue
		}

		var jsonReq models.JSONRPCRequest
		if err := json.Unmarshal(lineBytes, &jsonReq); err != nil {
			h.writeJSONRPCResponse(output, models.JSONRPCResponse{
				JSONRPC: models.JSONRPCVersion,
				Error:   errors.ToJSONRPCError(errors.NewParseError(fmt.Sprintf("Invalid JSON received: %v", err))),
			})
			continue
		}

		h.writeJSONRPCResponse(output, h.handle(jsonReq))
	}

	if err := scanner.Err(); err != nil {
		h.logger.Error().Err(err).Msg("error reading from stdio")
		return err
	}

	h.logger.Info().Msg("stdio JSON-RPC handler finished")
	return nil
}
