package ollama

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/longkey1/llmprobe/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r io.Reader) ([]string, []*ParseError, error) {
	t.Helper()
	var (
		fragments   []string
		parseErrors []*ParseError
		fatal       error
	)
	for fragment, err := range Fragments(r) {
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErrors = append(parseErrors, parseErr)
				continue
			}
			fatal = err
			continue
		}
		fragments = append(fragments, fragment)
	}
	return fragments, parseErrors, fatal
}

func TestFragments(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		want          []string
		wantParseErrs []int
	}{
		{
			name: "well formed stream",
			input: `{"message":{"role":"assistant","content":"Hel"}}
{"message":{"role":"assistant","content":"lo"}}
{"message":{"role":"assistant","content":"!"},"done":true}
`,
			want: []string{"Hel", "lo", "!"},
		},
		{
			name:  "blank lines are skipped",
			input: "\n{\"message\":{\"content\":\"pong\"}}\n\n   \n",
			want:  []string{"pong"},
		},
		{
			name: "malformed line in the middle",
			input: `{"message":{"content":"a"}}
{not json
{"message":{"content":"b"}}`,
			want:          []string{"a", "b"},
			wantParseErrs: []int{2},
		},
		{
			name: "lines without content are ignored",
			input: `{"model":"tinyllama","done":false}
{"message":{"role":"assistant"}}
{"message":{"content":""}}
{"message":{"content":"x"}}`,
			want: []string{"", "x"},
		},
		{
			name:  "empty body",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, parseErrs, fatal := collect(t, strings.NewReader(tt.input))
			require.NoError(t, fatal)
			assert.Equal(t, tt.want, fragments)

			var lines []int
			for _, pe := range parseErrs {
				lines = append(lines, pe.Number)
			}
			assert.Equal(t, tt.wantParseErrs, lines)
		})
	}
}

func TestFragments_ParseErrorCarriesLine(t *testing.T) {
	_, parseErrs, _ := collect(t, strings.NewReader("{oops}\n"))
	require.Len(t, parseErrs, 1)
	assert.Equal(t, "{oops}", parseErrs[0].Line)
	assert.Contains(t, parseErrs[0].Error(), "{oops}")
}

func TestFragments_StopEarly(t *testing.T) {
	input := `{"message":{"content":"a"}}
{"message":{"content":"b"}}`
	var got []string
	for fragment, err := range Fragments(strings.NewReader(input)) {
		require.NoError(t, err)
		got = append(got, fragment)
		break
	}
	assert.Equal(t, []string{"a"}, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestFragments_ReadError(t *testing.T) {
	_, _, fatal := collect(t, failingReader{})
	require.Error(t, fatal)
	assert.Contains(t, fatal.Error(), "connection reset")
}

func TestClientChat(t *testing.T) {
	var (
		gotReq    ChatRequest
		gotHeader http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ChatPath, r.URL.Path)
		gotHeader = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, sonic.Unmarshal(body, &gotReq))

		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, "{\"message\":{\"content\":\"pong\"}}\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+ChatPath, server.Client())
	stream, err := client.Chat(context.Background(), "tinyllama", []chat.Message{chat.UserMessage("ping")})
	require.NoError(t, err)
	defer stream.Close()

	var sb strings.Builder
	for fragment, err := range stream.Fragments() {
		require.NoError(t, err)
		sb.WriteString(fragment)
	}

	assert.Equal(t, "pong", sb.String())
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, stream.RequestID, gotHeader.Get("X-Request-Id"))
	_, err = uuid.Parse(stream.RequestID)
	assert.NoError(t, err)

	assert.Equal(t, "tinyllama", gotReq.Model)
	assert.Equal(t, []chat.Message{{Role: chat.RoleUser, Content: "ping"}}, gotReq.Messages)
}

func TestClientChat_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL+ChatPath, nil)
	stream, err := client.Chat(context.Background(), "nope", []chat.Message{chat.UserMessage("ping")})
	require.Error(t, err)
	assert.Nil(t, stream)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "not found")
	assert.Contains(t, err.Error(), "500")
	assert.NotContains(t, err.Error(), "not found")
}

func TestClientChat_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + ChatPath
	server.Close()

	_, err := NewClient(url, nil).Chat(context.Background(), "tinyllama", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error sending request")
}
