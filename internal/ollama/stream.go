package ollama

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"

	"github.com/bytedance/sonic"
)

const maxLineSize = 1 << 20

// ParseError reports a streamed line that is not a JSON object. It does not
// end the stream.
type ParseError struct {
	Number int // 1-based line number
	Line   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Number, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Fragments reads r as NDJSON and yields the message.content of every line
// that carries one, in order. Blank lines are skipped. A malformed line yields
// a *ParseError and reading continues; a read failure yields a final error.
func Fragments(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

		number := 0
		for scanner.Scan() {
			number++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var resp ChatResponse
			if err := sonic.Unmarshal(bytes.Clone(line), &resp); err != nil {
				if !yield("", &ParseError{Number: number, Line: string(line), Err: err}) {
					return
				}
				continue
			}

			if resp.Message == nil || resp.Message.Content == nil {
				continue
			}
			if !yield(*resp.Message.Content, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("error reading stream: %w", err))
		}
	}
}
