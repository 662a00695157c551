package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ggoodman/teamspeak-mcp/internal/jsonrpc"
	"github.com/ggoodman/teamspeak-mcp/mcp"
	"github.com/ggoodman/teamspeak-mcp/mcpservice"
	"github.com/ggoodman/teamspeak-mcp/sessions"
)

// maxLineBytes bounds the size of a single inbound JSON-RPC message.
const maxLineBytes = 16 * 1024 * 1024

// Handler is a single-connection stdio transport that reads JSON-RPC messages
// from an io.Reader and writes responses to an io.Writer. By default, it uses
// os.Stdin and os.Stdout. It identifies the peer using a UserProvider, which
// defaults to the current OS user ID.
//
// The handler is transport-only; it delegates all MCP semantics to the
// provided mcpservice.ServerCapabilities.
type Handler struct {
	srv          mcpservice.ServerCapabilities
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider

	writeMu sync.Mutex
	calls   sync.WaitGroup

	sessionMu sync.Mutex
	session   sessions.Session
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv mcpservice.ServerCapabilities, opts ...Option) *Handler {
	h := &Handler{
		srv:          srv,
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.Default(),
		userProvider: OSUserProvider{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It is safe to call at most once per Handler. Serve is responsible
// for:
//   - JSON-RPC message framing (newline-delimited)
//   - initialize/initialized lifecycle with the provided ServerCapabilities
//   - routing requests and notifications to the capabilities
//   - writing JSON-RPC responses to the writer
func (h *Handler) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(h.r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		req, err := jsonrpc.ParseRequest(line)
		if err != nil {
			h.l.WarnContext(ctx, "dropping malformed message", slog.String("err", err.Error()))
			if werr := h.writeResponse(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, err.Error())); werr != nil {
				return werr
			}
			continue
		}
		if req.IsNotification() {
			h.handleNotification(ctx, req)
			continue
		}
		// Tool calls can block on the remote server; run them off the read
		// loop so ping and list stay responsive while a call is in flight.
		if req.Method == mcp.ToolsCallMethod {
			h.calls.Add(1)
			go func(req *jsonrpc.Request) {
				defer h.calls.Done()
				res := h.handleToolsCall(ctx, req)
				if err := h.writeResponse(res); err != nil {
					h.l.ErrorContext(ctx, "failed to write tool response",
						slog.String("id", req.ID.String()),
						slog.String("err", err.Error()))
				}
			}(req)
			continue
		}
		res := h.handleRequest(ctx, req)
		if res == nil {
			continue
		}
		if err := h.writeResponse(res); err != nil {
			return err
		}
	}
	h.calls.Wait()
	if err := scanner.Err(); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return nil
		}
		return fmt.Errorf("read loop: %w", err)
	}
	return nil
}

func (h *Handler) handleNotification(ctx context.Context, req *jsonrpc.Request) {
	switch req.Method {
	case mcp.InitializedNotificationMethod:
		// Nothing to flip; the single session is live once initialize returns.
	default:
		h.l.DebugContext(ctx, "ignoring notification", slog.String("method", req.Method))
	}
}

func (h *Handler) handleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	switch req.Method {
	case mcp.InitializeMethod:
		return h.handleInitialize(ctx, req)
	case mcp.PingMethod:
		res, err := jsonrpc.NewResultResponse(req.ID, struct{}{})
		if err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
		}
		return res
	case mcp.ToolsListMethod:
		return h.handleToolsList(ctx, req)
	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (h *Handler) handleInitialize(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("invalid initialize params: %v", err))
		}
	}

	version := params.ProtocolVersion
	if v, ok, err := h.srv.GetPreferredProtocolVersion(ctx); err == nil && ok {
		version = v
	}
	if version == "" {
		version = mcp.LatestProtocolVersion
	}

	userID, err := h.userProvider.CurrentUserID()
	if err != nil {
		h.l.WarnContext(ctx, "could not resolve local user", slog.String("err", err.Error()))
	}
	sess := sessions.NewEphemeral(userID, version)
	h.setSession(sess)

	info, err := h.srv.GetServerInfo(ctx, sess)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}

	caps := mcp.ServerCapabilities{}
	if _, ok, err := h.srv.GetToolsCapability(ctx, sess); err == nil && ok {
		caps.Tools = &mcp.ToolsServerCapability{}
	}

	result := mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      info,
	}
	if instr, ok, err := h.srv.GetInstructions(ctx, sess); err == nil && ok {
		result.Instructions = instr
	}

	h.l.InfoContext(ctx, "session initialized",
		slog.String("session_id", sess.SessionID()),
		slog.String("protocol_version", version),
		slog.String("client", params.ClientInfo.Name),
	)

	res, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}
	return res
}

func (h *Handler) handleToolsList(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	sess := h.currentSession()
	if sess == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "server not initialized")
	}
	tools, ok, err := h.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "tools capability not supported")
	}

	var params mcp.ListToolsRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("invalid tools/list params: %v", err))
		}
	}
	var cursor *string
	if params.Cursor != "" {
		cursor = &params.Cursor
	}

	page, err := tools.ListTools(ctx, sess, cursor)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}

	result := mcp.ListToolsResult{Tools: page.Items}
	if result.Tools == nil {
		result.Tools = []mcp.Tool{}
	}
	if page.NextCursor != nil {
		result.NextCursor = *page.NextCursor
	}

	res, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}
	return res
}

func (h *Handler) handleToolsCall(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	sess := h.currentSession()
	if sess == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "server not initialized")
	}
	tools, ok, err := h.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "tools capability not supported")
	}

	var params mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
	}

	result, err := tools.CallTool(ctx, sess, &params)
	if err != nil {
		// Unknown tool names and other dispatch failures surface as
		// method-level errors; handler failures arrive as IsError results.
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error())
	}

	res, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error())
	}
	return res
}

func (h *Handler) setSession(sess sessions.Session) {
	h.sessionMu.Lock()
	h.session = sess
	h.sessionMu.Unlock()
}

func (h *Handler) currentSession() sessions.Session {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	return h.session
}

func (h *Handler) writeResponse(res *jsonrpc.Response) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
