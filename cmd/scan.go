package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>...",
	Short: "Recognize faces in still images and record attendance",
	Long: `Treat each image as one camera frame: faces are extracted by the embedding
service, matched against the catalog and recorded in the ledger. Images are
stamped with the current time, or with their modification time when
--use-mtime is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("use-mtime", false, "Use the file modification time as the frame timestamp")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	useMtime := mustGetBool(cmd, "use-mtime")

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, logger,
		recognition.WithAnnouncer(&announce.LogAnnouncer{Logger: logger}))
	if err != nil {
		return err
	}
	defer p.Close()

	extractor := newExtractor(cfg)
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		ts := time.Now()
		if useMtime {
			if info, err := os.Stat(path); err == nil {
				ts = info.ModTime()
			}
		}

		faces, err := extractor.ExtractFaces(ctx, data)
		if err != nil {
			return fmt.Errorf("extract faces from %s: %w", path, err)
		}
		probes := make([]facematch.Probe, 0, len(faces))
		for _, emb := range faces {
			probes = append(probes, facematch.Probe{Embedding: emb, Timestamp: ts})
		}

		statuses, err := p.cycle.Process(ctx, probes)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Printf("%s:\n", path)
		for _, st := range statuses {
			line := "  " + st.DisplayText()
			if st.State != recognition.Unrecognized || st.Distance > 0 {
				line += fmt.Sprintf(" (distance %.3f)", st.Distance)
			}
			switch {
			case st.Err != nil:
				line += " [ledger error: " + st.Err.Error() + "]"
			case st.Outcome != "":
				line += " [" + string(st.Outcome) + "]"
			}
			fmt.Println(line)
		}
	}
	return nil
}
