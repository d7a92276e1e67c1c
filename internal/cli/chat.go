package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glassbox-io/glassbox/internal/analytics"
	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/wire"
)

var chatShowLog bool

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one message and stream the answer",
	Long: `Chat sends a single message to the daemon and streams the reply to
stdout as it is generated. With --log, every brain log entry is printed
to stderr as it arrives.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowLog, "log", false, "print brain log entries to stderr")
}

var (
	chatReasoningStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	chatFailStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "196"})
	chatLogStyle       = lipgloss.NewStyle().Faint(true)
)

func runChat(cmd *cobra.Command, args []string) error {
	baseURL, err := EnsureDaemon()
	if err != nil {
		return err
	}

	message := strings.Join(args, " ")
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(analytics.DistinctIDHeader, uuid.New().String())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	return streamToConsole(resp.Body, interactive)
}

// streamToConsole renders frames as they arrive: reasoning dim, text
// verbatim, log entries (when requested) to stderr.
func streamToConsole(r io.Reader, interactive bool) error {
	dec := wire.NewDecoder(r)
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch ev.Type {
		case wire.FrameReasoningDelta:
			if interactive {
				fmt.Print(chatReasoningStyle.Render(ev.Delta))
			}
		case wire.FrameTextDelta:
			fmt.Print(ev.Delta)
		case wire.FrameBrainLog:
			if chatShowLog {
				fmt.Fprintln(os.Stderr, chatLogStyle.Render(formatEntry(ev.Entry)))
			}
		case wire.FrameFinish:
			fmt.Println()
			if ev.Reason == wire.FinishAborted {
				msg := "turn aborted"
				if ev.Err != "" {
					msg += ": " + ev.Err
				}
				if interactive {
					msg = chatFailStyle.Render(msg)
				}
				fmt.Fprintln(os.Stderr, msg)
			}
			return nil
		}
	}
}

func formatEntry(e models.LogEntry) string {
	line := fmt.Sprintf("[%s] %s (%s)", e.Kind, e.Title, e.Status)
	if e.DurationMS != nil {
		line += fmt.Sprintf(" %.0fms", *e.DurationMS)
	}
	return line
}
