package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/grimoco/grimchat/internal/errors"
	"github.com/grimoco/grimchat/internal/models"
)

// gjson paths into each SSE chunk
const (
	pathParts           = "candidates.0.content.parts"
	pathGroundingChunks = "candidates.0.groundingMetadata.groundingChunks"
	pathFinishReason    = "candidates.0.finishReason"
	pathErrorMessage    = "error.message"
	pathErrorCode       = "error.code"
)

// ChunkFunc receives each parsed chunk in arrival order. Returning an error
// aborts the stream.
type ChunkFunc func(models.StreamChunk) error

// GenerateStream posts the request to the model's streaming endpoint and
// invokes fn for every chunk until the stream ends, the context is canceled,
// or fn returns an error. The call blocks for the duration of the stream.
func (c *Client) GenerateStream(ctx context.Context, model models.Model, req *models.GenerateRequest, fn ChunkFunc) error {
	if c.IsClosed() {
		return fmt.Errorf("client is closed")
	}
	if len(req.Contents) == 0 {
		return fmt.Errorf("request has no contents")
	}

	if timeout := c.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := models.StreamEndpoint(model)

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders(c.apiKey) {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return streamAbortError(ctx, endpoint)
		}
		return apierrors.WrapRemoteCallError(endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode != 200 {
		return remoteError(resp.StatusCode, endpoint, resp.Body)
	}

	return consumeSSE(ctx, resp.Body, endpoint, fn)
}

// consumeSSE reads the event stream line by line. Each data line is one JSON
// chunk; the sequence ends at EOF or an explicit [DONE] marker.
func consumeSSE(ctx context.Context, body io.Reader, endpoint string, fn ChunkFunc) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	delivered := false
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return streamAbortError(ctx, endpoint)
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		chunk, err := parseChunk(data)
		if err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
		delivered = true
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return streamAbortError(ctx, endpoint)
		}
		return apierrors.WrapRemoteCallError(endpoint, err)
	}
	if !delivered {
		return apierrors.NewParseError("stream ended without any chunks", "")
	}
	return nil
}

// parseChunk extracts the text delta and any grounding citations from one
// SSE data payload.
func parseChunk(data string) (models.StreamChunk, error) {
	if !gjson.Valid(data) {
		return models.StreamChunk{}, apierrors.NewParseError("invalid JSON in stream", "")
	}
	parsed := gjson.Parse(data)

	if msg := parsed.Get(pathErrorMessage); msg.Exists() {
		code := int(parsed.Get(pathErrorCode).Int())
		return models.StreamChunk{}, apierrors.NewRemoteCallError(code, "", msg.String())
	}

	var chunk models.StreamChunk

	parsed.Get(pathParts).ForEach(func(_, part gjson.Result) bool {
		chunk.Text += part.Get("text").String()
		return true
	})

	parsed.Get(pathGroundingChunks).ForEach(func(_, gc gjson.Result) bool {
		uri := gc.Get("web.uri").String()
		title := gc.Get("web.title").String()
		if uri == "" && title == "" {
			return true
		}
		chunk.Citations = append(chunk.Citations, models.Citation{
			URI:   uri,
			Title: title,
		})
		return true
	})

	if parsed.Get(pathFinishReason).Exists() {
		chunk.Final = true
	}

	return chunk, nil
}

// remoteError reads a bounded slice of the error body for diagnostics
func remoteError(status int, endpoint string, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))

	message := strings.TrimSpace(string(raw))
	if gjson.Valid(message) {
		if m := gjson.Get(message, "error.message"); m.Exists() {
			message = m.String()
		}
	}
	if message == "" {
		message = "request failed"
	}
	return apierrors.NewRemoteCallError(status, endpoint, message)
}

func streamAbortError(ctx context.Context, endpoint string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(endpoint)
	}
	return apierrors.ErrAborted
}
