// Package replay implements "tblogger replay", which forwards recorded
// training reports to TensorBoard.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wandb/tblogger/cmd/tblogger/root/version"
	"github.com/wandb/tblogger/internal/cliutil"
	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/tbconfig"
	"github.com/wandb/tblogger/internal/tblogger"

	// Registers the "tensorboard" backend.
	_ "github.com/wandb/tblogger/internal/summarywriter"
)

// maxLineSize bounds one JSON line, which may hold a large histogram.
const maxLineSize = 64 << 20

// Sink receives replayed entries.
type Sink interface {
	AddMetrics(setting string, step int64, report tblogger.Report) error
	AddScalar(name string, value float64, step int64) error
	AddHistogram(name string, values []float64, step int64) error
}

func NewReplayCmd() *cobra.Command {
	var metricsOut string

	cmd := &cobra.Command{
		Use:   "replay <reports.jsonl>",
		Short: "Write recorded reports to TensorBoard",
		Long: heredoc.Doc(`
			Reads one JSON object per line and forwards it to TensorBoard:

			  {"setting": "train", "step": 10, "report": {"loss": 1.1, "ppl": 5.2}}
			  {"scalar": "custom/x", "value": 3.0, "step": 5}
			  {"histogram": "weights", "values": [0.1, 0.2], "step": 5}

			Reports are filtered by --tensorboard-metrics; scalars and
			histograms are written as given.
		`),
		Example: heredoc.Doc(`
			# Replay reports into ./data/tensorboard/<start time>lr-0.01
			$ tblogger replay reports.jsonl --tensorboard-log \
			    --tensorboard-tag lr --option lr=0.01

			# Also copy the run to S3 when done
			$ tblogger replay reports.jsonl --tensorboard-log \
			    --tensorboard-upload-url s3://bucket/runs
		`),
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return tbconfig.Bind(viper.GetViper(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cliutil.NewLogger(cliutil.LoggerParams{
				Out:       cmd.ErrOrStderr(),
				Level:     viper.GetString("log_level"),
				SentryDSN: viper.GetString("sentry_dsn"),
				Release:   version.Version,
				Commit:    version.GitCommit,
			})
			if err != nil {
				return err
			}
			defer logger.Reraise()

			opts := tbconfig.Load(viper.GetViper(), time.Now)
			if !opts.Enabled {
				logger.Warn("replay: TensorBoard logging is off, nothing to do; pass --tensorboard-log")
				return nil
			}

			input, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer input.Close()

			tbl, err := InjectLogger(opts, afero.NewOsFs(), logger)
			if err != nil {
				logger.CaptureError(err)
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			count, replayErr := Replay(ctx, input, tbl)
			closeErr := tbl.Close(ctx)
			logger.Info("replay: done",
				"entries", fmt.Sprint(count),
				"logdir", string(tbl.LogDir()))

			if metricsOut != "" {
				if err := WriteMetricsFile(metricsOut, prometheus.DefaultGatherer); err != nil {
					return err
				}
			}

			switch {
			case replayErr != nil:
				return replayErr
			case closeErr != nil:
				logger.CaptureError(closeErr)
				return closeErr
			}
			return nil
		},
	}

	tbconfig.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write writer counters in Prometheus text format to this file")

	return cmd
}

// Replay forwards every line of r to the sink.
//
// Returns the number of entries forwarded before the first error.
func Replay(ctx context.Context, r io.Reader, sink Sink) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	count := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := ctx.Err(); err != nil {
			return count, err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		entry, err := parseEntry(line)
		if err != nil {
			return count, wberrors.Enrichf(err, "replay: line %d", lineNum)
		}

		if err := entry.forward(sink); err != nil {
			return count, wberrors.Bubblef(err, "replay: line %d", lineNum)
		}
		count++
	}

	if err := scanner.Err(); err != nil {
		return count, wberrors.Enrichf(err, "replay: failed to read input")
	}
	return count, nil
}

// WriteMetricsFile writes the gathered metrics in Prometheus text format.
func WriteMetricsFile(path string, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %v", err)
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return fmt.Errorf("failed to encode metrics: %v", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write metrics: %v", err)
	}
	return nil
}
