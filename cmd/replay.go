package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <frames.jsonl>",
	Short: "Feed recorded frames through the recognition pipeline",
	Long: `Replay a recording of detected faces, one JSON frame per line:

  {"timestamp":"2024-03-04T09:00:00Z","faces":[{"embedding":[...]}]}

Frames are processed in file order using their own timestamps, so debounce
and per-day deduplication behave exactly as they did live.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

// replaySummary counts per-probe results of a replay.
type replaySummary struct {
	Frames       int
	Recognized   int
	Waiting      int
	Unrecognized int
	Created      int
	Failed       int
}

func (s *replaySummary) add(statuses []recognition.Status) {
	s.Frames++
	for _, st := range statuses {
		switch st.State {
		case recognition.Recognized:
			s.Recognized++
		case recognition.Waiting:
			s.Waiting++
		default:
			s.Unrecognized++
		}
		if st.Err != nil {
			s.Failed++
		} else if st.Outcome == ledger.Created {
			s.Created++
		}
	}
}

// readFrames parses a JSON-lines recording. Blank lines are skipped.
func readFrames(r io.Reader) ([]recognition.Frame, error) {
	var frames []recognition.Frame
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var f recognition.Frame
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return frames, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	frames, err := readFrames(file)
	file.Close()
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, logger,
		recognition.WithAnnouncer(&announce.LogAnnouncer{Logger: logger}))
	if err != nil {
		return err
	}
	defer p.Close()

	var bar *progressbar.ProgressBar
	if !mustGetBool(cmd, "no-progress") {
		bar = progressbar.NewOptions(len(frames),
			progressbar.OptionSetDescription("Replaying frames"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	var summary replaySummary
	for i, f := range frames {
		statuses, err := p.cycle.Process(ctx, f.Probes(time.Now()))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		summary.add(statuses)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Frames:        %d\n", summary.Frames)
	fmt.Printf("Recognized:    %d\n", summary.Recognized)
	fmt.Printf("Waiting:       %d\n", summary.Waiting)
	fmt.Printf("Unrecognized:  %d\n", summary.Unrecognized)
	fmt.Printf("New records:   %d\n", summary.Created)
	if summary.Failed > 0 {
		fmt.Printf("Ledger errors: %d\n", summary.Failed)
	}
	return nil
}
