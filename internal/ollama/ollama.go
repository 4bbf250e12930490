// Package ollama talks to the native chat endpoint of an Ollama-style server.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/longkey1/llmprobe/internal/chat"
)

const (
	ProviderName = "ollama"
	ChatPath     = "/api/chat"

	// maxErrorBody bounds how much of a failed response is kept for the error message.
	maxErrorBody = 4 << 10
)

// ChatRequest is the body sent to /api/chat
type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
}

// ChatResponse is a single line of the streamed /api/chat response
type ChatResponse struct {
	Model     string           `json:"model"`
	CreatedAt string           `json:"created_at"`
	Message   *ResponseMessage `json:"message"`
	Done      bool             `json:"done"`
}

// ResponseMessage is the message part of a streamed line. Content is a
// pointer so that a missing field can be told apart from an empty one.
type ResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// RequestError is returned when the server answers with a non-2xx status.
// Body holds the start of the response and is not part of Error().
type RequestError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Status)
}

// Client sends chat requests to the native endpoint
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the given chat URL. A nil httpClient means
// a plain http.Client with no timeout.
func NewClient(chatURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		url:  chatURL,
		http: httpClient,
	}
}

// URL returns the endpoint the client posts to
func (c *Client) URL() string {
	return c.url
}

// Stream is an open streamed response. The caller must Close it.
type Stream struct {
	RequestID string
	body      io.ReadCloser
}

// Fragments yields the content fragments of the stream as they arrive.
func (s *Stream) Fragments() iter.Seq2[string, error] {
	return Fragments(s.body)
}

// Close releases the response body
func (s *Stream) Close() error {
	return s.body.Close()
}

// Chat posts the messages and returns the open response stream
func (c *Client) Chat(ctx context.Context, model string, messages []chat.Message) (*Stream, error) {
	jsonData, err := sonic.Marshal(ChatRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	return &Stream{
		RequestID: requestID,
		body:      resp.Body,
	}, nil
}
