// Package inspect implements "tblogger inspect", which prints the events
// in a log directory.
package inspect

import (
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wandb/tblogger/internal/cliutil"
	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/tfevents"
)

// Record is one printed summary value.
type Record struct {
	File     string  `json:"file" yaml:"file"`
	WallTime float64 `json:"wallTime" yaml:"wallTime"`
	Step     int64   `json:"step" yaml:"step"`
	Tag      string  `json:"tag" yaml:"tag"`

	// Value is set for scalars.
	Value *float32 `json:"value,omitempty" yaml:"value,omitempty"`

	// Histogram is set for value distributions.
	Histogram *Histogram `json:"histogram,omitempty" yaml:"histogram,omitempty"`
}

type Histogram struct {
	Min         float64   `json:"min" yaml:"min"`
	Max         float64   `json:"max" yaml:"max"`
	Num         float64   `json:"num" yaml:"num"`
	Sum         float64   `json:"sum" yaml:"sum"`
	BucketLimit []float64 `json:"bucketLimit" yaml:"bucketLimit"`
	Bucket      []float64 `json:"bucket" yaml:"bucket"`
}

func NewInspectCmd() *cobra.Command {
	var hostname string
	var since int64

	cmd := &cobra.Command{
		Use:   "inspect <logdir>",
		Short: "Print the values in a TensorBoard log directory",
		Example: heredoc.Doc(`
			# Print all values as JSON
			$ tblogger inspect ./data/tensorboard/Oct15_14-30

			# Print one line per value
			$ tblogger inspect ./data/tensorboard/Oct15_14-30 \
			    --template '{{range .}}{{.Step}} {{.Tag}} {{.Value}}{{"\n"}}{{end}}'
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cliutil.NewLogger(cliutil.LoggerParams{
				Out:   cmd.ErrOrStderr(),
				Level: viper.GetString("log_level"),
			})
			if err != nil {
				return err
			}

			records, err := Inspect(
				afero.NewOsFs(),
				args[0],
				tfevents.FileFilter{StartTimeSec: since, Hostname: hostname},
				logger,
			)
			if err != nil {
				return err
			}

			return cliutil.HandleOutput(cmd, records)
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "", "Only read files written by this host")
	cmd.Flags().Int64Var(&since, "since", 0, "Only read files started at or after this Unix time")
	cliutil.AddOutputFlags(cmd)

	return cmd
}

// Inspect reads every summary value in the directory's events files.
//
// File version headers are skipped.
func Inspect(
	fs afero.Fs,
	dir string,
	filter tfevents.FileFilter,
	logger *observability.CoreLogger,
) ([]Record, error) {
	reader := tfevents.NewReader(fs, dir, filter, logger)

	records := make([]Record, 0)
	var file string
	for {
		event, err := reader.NextEvent(func(path string) {
			file = filepath.Base(path)
		})
		if err != nil {
			return records, err
		}
		if event == nil {
			return records, nil
		}
		if event.Summary == nil {
			continue
		}

		for _, value := range event.Summary.Values {
			record := Record{
				File:     file,
				WallTime: event.WallTime,
				Step:     event.Step,
				Tag:      value.Tag,
				Value:    value.SimpleValue,
			}

			if h := value.Histo; h != nil {
				record.Histogram = &Histogram{
					Min:         h.Min,
					Max:         h.Max,
					Num:         h.Num,
					Sum:         h.Sum,
					BucketLimit: h.BucketLimit,
					Bucket:      h.Bucket,
				}
			}

			records = append(records, record)
		}
	}
}
