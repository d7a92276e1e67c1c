package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/glassbox-io/glassbox/internal/analytics"
	"github.com/glassbox-io/glassbox/internal/wire"
)

// streamClient sends chat messages to the daemon and forwards decoded
// frames to the program. One stream runs at a time.
type streamClient struct {
	baseURL    string
	distinctID string
	ref        *programRef
}

// start fires one chat request and pumps its frames until the stream
// ends. Runs on its own goroutine; all results arrive as tea messages.
func (c *streamClient) start(message string) {
	go func() {
		c.ref.Send(turnDoneMsg{err: c.pump(message)})
	}()
}

func (c *streamClient) pump(message string) error {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(analytics.DistinctIDHeader, c.distinctID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	dec := wire.NewDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		c.ref.Send(frameMsg{event: ev})
		if ev.Type == wire.FrameFinish {
			return nil
		}
	}
}
