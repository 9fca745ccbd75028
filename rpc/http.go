package rpc

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"spredd/native/forecast"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the engine's read surface and the submitter-facing
// submission protocol over JSON-RPC.
type Server struct {
	engine    *forecast.Engine
	submitter common.Address
	authToken string
}

// NewServer constructs a server for the supplied engine. Submission calls
// authenticate with the SPREDD_RPC_TOKEN bearer token and run under the
// configured submitter identity.
func NewServer(engine *forecast.Engine, submitter common.Address) *Server {
	return &Server{
		engine:    engine,
		submitter: submitter,
		authToken: strings.TrimSpace(os.Getenv("SPREDD_RPC_TOKEN")),
	}
}

// Start serves JSON-RPC requests on addr until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
}

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError carries a JSON-RPC error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	return header == "Bearer "+s.authToken
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	switch req.Method {
	case "forecast_currentEpoch":
		s.handleCurrentEpoch(w, &req)
	case "forecast_epoch":
		s.handleEpoch(w, &req)
	case "forecast_pendingEpochs":
		s.handlePendingEpochs(w, &req)
	case "forecast_score":
		s.handleScore(w, &req)
	case "forecast_lifetimeScore":
		s.handleLifetimeScore(w, &req)
	case "forecast_topPerformers":
		s.handleTopPerformers(w, &req)
	case "forecast_previewTraderScore":
		s.handlePreviewTraderScore(w, &req)
	case "forecast_previewCreatorScore":
		s.handlePreviewCreatorScore(w, &req)
	case "forecast_submitLeaderboard":
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "bearer token required", nil)
			return
		}
		s.handleSubmitLeaderboard(w, &req)
	case "forecast_submitLeaderboardBatch":
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "bearer token required", nil)
			return
		}
		s.handleSubmitLeaderboardBatch(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
	}
}

func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "method requires one parameter object", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid request parameters", err.Error())
		return false
	}
	return true
}
