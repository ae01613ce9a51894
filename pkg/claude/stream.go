package claude

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"hybridmcp/pkg/breaker"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"
)

// DeltaFunc receives streamed text. Returning an error stops the stream.
type DeltaFunc func(delta string) error

// Stream completes req, passing text deltas to onDelta as they arrive, and
// returns the assembled response.
func (c *Client) Stream(ctx context.Context, req CompletionRequest, onDelta DeltaFunc) (*Response, error) {
	body, err := c.completionBody(req)
	if err != nil {
		return nil, err
	}
	body.Stream = true
	logger.InfoCtx(ctx, "claude streaming completion with model %s", c.model)

	var out *Response
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		out, err = readStream(resp.Body, onDelta)
		return err
	})
	if errors.Is(err, breaker.ErrCircuitOpen) {
		metrics.RecordUpstreamCall("claude", "circuit_open")
		return nil, ErrCircuitOpen
	}
	if err != nil {
		metrics.RecordUpstreamCall("claude", "error")
		return out, err
	}
	metrics.RecordUpstreamCall("claude", "ok")
	return out, nil
}

// readStream consumes a server-sent event stream from the Messages API
func readStream(r io.Reader, onDelta DeltaFunc) (*Response, error) {
	out := &Response{Role: RoleAssistant}
	var content strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return out, fmt.Errorf("failed to parse stream event: %w", err)
		}

		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				out.Model = ev.Message.Model
				out.Usage.InputTokens = ev.Message.Usage.InputTokens
			}
		case "content_block_delta":
			if ev.Delta.Type != "text_delta" && ev.Delta.Type != "" {
				continue
			}
			content.WriteString(ev.Delta.Text)
			if onDelta != nil {
				if err := onDelta(ev.Delta.Text); err != nil {
					out.Content = content.String()
					return out, err
				}
			}
		case "message_delta":
			if ev.Delta.StopReason != "" {
				out.StopReason = ev.Delta.StopReason
			}
			if ev.Usage != nil {
				out.Usage.OutputTokens = ev.Usage.OutputTokens
			}
		case "error":
			apiErr := &APIError{StatusCode: 500, Type: "stream_error"}
			if ev.Error != nil {
				apiErr.Type = ev.Error.Type
				apiErr.Message = ev.Error.Message
			}
			out.Content = content.String()
			return out, apiErr
		case "message_stop":
			out.Content = content.String()
			return out, nil
		}
	}
	out.Content = content.String()
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("failed to read stream: %w", err)
	}
	return out, nil
}
