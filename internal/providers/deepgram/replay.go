package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hotmic/internal/domain"
)

const (
	defaultChunkSize = 8192
	minChunkSize     = 256
)

var closeStream = []byte(`{"type":"CloseStream"}`)

// replay sends one finished recording over a live connection and collects
// the final segments Deepgram returns for it.
type replay struct {
	conn     *websocket.Conn
	segments []string
}

func newReplay(conn *websocket.Conn) *replay {
	return &replay{conn: conn}
}

// run sends pcm, asks Deepgram to flush, and waits up to grace for the
// connection to finish. Provider errors win over send failures.
func (r *replay) run(ctx context.Context, pcm []byte, chunkSize int, grace time.Duration) (string, error) {
	defer r.conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = r.conn.Close() })
	defer stop()

	read := make(chan error, 1)
	go func() { read <- r.readResults() }()

	sendErr := r.send(pcm, chunkSize)

	timer := time.NewTimer(grace)
	defer timer.Stop()

	var readErr error
	select {
	case readErr = <-read:
	case <-timer.C:
		_ = r.conn.Close()
		<-read
		readErr = fmt.Errorf("deepgram did not finish within %s", grace)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if readErr != nil {
		return "", readErr
	}
	if sendErr != nil {
		return "", sendErr
	}
	return strings.Join(r.segments, " "), nil
}

func (r *replay) send(pcm []byte, chunkSize int) error {
	for len(pcm) > 0 {
		n := min(chunkSize, len(pcm))
		if err := r.conn.WriteMessage(websocket.BinaryMessage, pcm[:n]); err != nil {
			return fmt.Errorf("failed to send audio: %w", err)
		}
		pcm = pcm[n:]
	}
	if err := r.conn.WriteMessage(websocket.TextMessage, closeStream); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// readResults consumes responses until Deepgram closes the connection or
// sends its trailing metadata.
func (r *replay) readResults() error {
	for {
		_, payload, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return nil
			}
			return fmt.Errorf("failed to read deepgram result: %w", err)
		}

		var msg listenMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch {
		case strings.EqualFold(msg.Type, "Error"):
			message := strings.TrimSpace(msg.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			return &domain.APIError{Message: message}
		case strings.EqualFold(msg.Type, "Metadata"):
			return nil
		case msg.IsFinal:
			if text := msg.transcript(); text != "" {
				r.segments = append(r.segments, text)
			}
		}
	}
}
