package handler

import (
	"encoding/json"
	"net/http"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/status"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CompleteRequest completion request, optionally streamed
type CompleteRequest struct {
	claude.CompletionRequest
	Stream bool `json:"stream,omitempty"`
}

// AnalyzeCodeRequest code analysis request
type AnalyzeCodeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language,omitempty"`
	Task     string `json:"task,omitempty"` // analyze, review, improve, debug
}

// VibeCodeRequest empathetic code generation request
type VibeCodeRequest struct {
	Request string                 `json:"request" binding:"required"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// StreamMessage frame sent over the completion websocket
type StreamMessage struct {
	Type     string           `json:"type"` // delta, done, error
	Text     string           `json:"text,omitempty"`
	Response *claude.Response `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CompletionHandler handles model completion operations
type CompletionHandler struct {
	completion *service.CompletionService
	upgrader   websocket.Upgrader
}

// NewCompletionHandler creates completion handler
func NewCompletionHandler(completion *service.CompletionService) *CompletionHandler {
	return &CompletionHandler{
		completion: completion,
		upgrader: websocket.Upgrader{
			// Origins are enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Complete completes a prompt
// @Summary Complete a prompt
// @Description Route a single prompt completion locally or remotely. With stream=true the text is streamed as plain chunks and always runs locally.
// @Tags completion
// @Accept json
// @Produce json
// @Param request body CompleteRequest true "Completion request"
// @Success 200 {object} service.CompletionResult
// @Router /v1/complete [post]
func (h *CompletionHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	if req.Stream {
		h.streamText(c, req.CompletionRequest)
		return
	}

	res, err := h.completion.Complete(c.Request.Context(), req.CompletionRequest)
	if err != nil {
		respondError(c, "complete prompt", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// streamText writes deltas as chunked plain text. Once the first chunk is
// out the status is committed, so later errors end the stream instead.
func (h *CompletionHandler) streamText(c *gin.Context, req claude.CompletionRequest) {
	ctx := c.Request.Context()
	started := false

	_, err := h.completion.Stream(ctx, req, func(delta string) error {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("X-Content-Type-Options", "nosniff")
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString(delta); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err == nil {
		if !started {
			c.Status(http.StatusOK)
		}
		return
	}
	if !started {
		respondError(c, "stream completion", err)
		return
	}
	logger.WarnCtx(ctx, "completion stream ended early: %v", err)
}

// Chat continues a conversation
// @Summary Chat
// @Description Route a multi-turn chat completion
// @Tags completion
// @Accept json
// @Produce json
// @Param request body claude.ChatRequest true "Chat request"
// @Success 200 {object} service.CompletionResult
// @Router /v1/chat [post]
func (h *CompletionHandler) Chat(c *gin.Context) {
	var req claude.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	res, err := h.completion.Chat(c.Request.Context(), req)
	if err != nil {
		respondError(c, "chat", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AnalyzeCode analyzes a code snippet
// @Summary Analyze code
// @Description Analyze, review, improve or debug code
// @Tags completion
// @Accept json
// @Produce json
// @Param request body AnalyzeCodeRequest true "Code analysis request"
// @Success 200 {object} service.CompletionResult
// @Router /v1/analyze-code [post]
func (h *CompletionHandler) AnalyzeCode(c *gin.Context) {
	var req AnalyzeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := h.completion.AnalyzeCode(c.Request.Context(), req.Code, req.Language, req.Task)
	if err != nil {
		respondError(c, "analyze code", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VibeCode generates code in a supportive register
// @Summary Vibe code
// @Description Generate code with an empathetic, educational tone
// @Tags completion
// @Accept json
// @Produce json
// @Param request body VibeCodeRequest true "Vibe coding request"
// @Success 200 {object} service.CompletionResult
// @Router /v1/vibe-code [post]
func (h *CompletionHandler) VibeCode(c *gin.Context) {
	var req VibeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := h.completion.VibeCode(c.Request.Context(), req.Request, req.Context)
	if err != nil {
		respondError(c, "vibe code", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StreamSocket streams completions over a websocket
// @Summary Streaming completion socket
// @Description Each text message is a completion request; the reply is a sequence of delta frames ended by a done or error frame
// @Tags completion
// @Router /v1/ws/complete [get]
func (h *CompletionHandler) StreamSocket(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugCtx(ctx, "completion socket closed: %v", err)
			}
			return
		}

		var req claude.CompletionRequest
		if err := json.Unmarshal(msg, &req); err != nil || req.Prompt == "" {
			if writeErr := ws.WriteJSON(StreamMessage{Type: "error", Error: "invalid request: prompt is required"}); writeErr != nil {
				return
			}
			continue
		}

		resp, err := h.completion.Stream(ctx, req, func(delta string) error {
			return ws.WriteJSON(StreamMessage{Type: "delta", Text: delta})
		})
		frame := StreamMessage{Type: "done", Response: resp}
		if err != nil {
			frame = StreamMessage{Type: "error", Error: status.RedactError(err)}
		}
		if err := ws.WriteJSON(frame); err != nil {
			return
		}
	}
}
