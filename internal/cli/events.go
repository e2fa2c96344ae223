package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		types      []string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream your match and lobby events",
		Long: `Connect to the event stream and print events as they arrive.

Event types:
  room_ready     you took a seat and may place ships
  boards_ready   both fleets are placed, first turn assigned
  shot_result    a shot was resolved in your match
  turn           the turn passed
  match_over     the match finished
  lobby_update   winners or open rooms changed

Use --types to print only some of them. Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return errors.New("not registered: run 'player register' first")
			}
			return streamEvents(cmd.Context(), eventPrinter{json: jsonOutput, types: types})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringSliceVar(&types, "types", nil, "Only print these event types (comma separated)")

	return cmd
}

// StreamedEvent is one server-sent event as printed by the CLI
type StreamedEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type eventPrinter struct {
	json  bool
	types []string
}

func (p eventPrinter) wants(event string) bool {
	return len(p.types) == 0 || slices.Contains(p.types, event)
}

func (p eventPrinter) status(msg string) {
	if !p.json {
		fmt.Println(msg)
	}
}

func (p eventPrinter) print(event, data string) {
	if !p.wants(event) {
		return
	}
	now := time.Now()

	if p.json {
		raw := json.RawMessage(data)
		if !json.Valid(raw) {
			raw, _ = json.Marshal(data)
		}
		line, _ := json.Marshal(StreamedEvent{Time: now, Event: event, Data: raw})
		fmt.Println(string(line))
		return
	}

	display := strings.ReplaceAll(data, "\n", " ")
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", now.Format(time.DateTime), event, display)
}

func streamEvents(ctx context.Context, printer eventPrinter) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	// The stream stays open until either side hangs up
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseRequestError(resp, body)
	}

	printer.status("Connected")

	err = readEvents(resp.Body, printer.print)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	printer.status("Disconnected")
	return nil
}

// readEvents splits an event stream into (event, data) pairs.
// Comment lines and events without a name are skipped.
func readEvents(r io.Reader, emit func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	var (
		event string
		data  []string
	)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event != "" {
				emit(event, strings.Join(data, "\n"))
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return scanner.Err()
}
