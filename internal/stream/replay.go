package stream

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// ReplaySource reads a JSONL event capture, one event per line with an
// embedded "type" field. Used by the replay command and in tests.
type ReplaySource struct {
	closer  io.Closer
	scanner *bufio.Scanner
}

// OpenReplay opens a capture file.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReplay(f), nil
}

// NewReplay wraps any reader producing JSONL events.
func NewReplay(r io.ReadCloser) *ReplaySource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0), 1024*1024) // 1 MB
	return &ReplaySource{closer: r, scanner: scanner}
}

// Recv yields the next event, skipping blank and undecodable lines, and
// returns io.EOF at end of capture.
func (s *ReplaySource) Recv(ctx context.Context) (protocol.Event, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		ev, err := protocol.ParseEmbedded([]byte(line))
		if err != nil {
			slog.Warn("skipping undecodable capture line", "error", err)
			continue
		}
		return ev, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close closes the underlying reader.
func (s *ReplaySource) Close() error {
	return s.closer.Close()
}
