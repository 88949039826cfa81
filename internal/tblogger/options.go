package tblogger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wandb/tblogger/internal/observability/wberrors"
)

// DefaultMetrics is the allow-list used when Options.Metrics is empty.
var DefaultMetrics = []string{"ppl", "loss"}

// Options configures a Logger.
type Options struct {
	// Enabled is whether TensorBoard logging was requested.
	//
	// New does not check it; callers decide whether to construct a Logger.
	Enabled bool

	// Tag is a comma-separated list of option keys to render into the run
	// directory name, or empty to name it after StartTime alone.
	Tag string

	// Metrics is a comma-separated allow-list of report keys for AddMetrics,
	// or empty for DefaultMetrics.
	Metrics string

	// DataPath is the directory under which "tensorboard/<tag>" is created.
	DataPath string

	// StartTime identifies the run, like "Oct15_14-30".
	StartTime string

	// Backend names the writer backend, or empty for DefaultBackend.
	Backend string

	// UploadURL, if set, is a local path or s3://, gs:// or az:// URL to
	// which the run's log directory is copied on Close.
	UploadURL string

	// MaxQueue, FlushInterval and MaxBins tune the writer; zero values
	// leave the backend's defaults. See OpenParams.
	MaxQueue      int
	FlushInterval time.Duration
	MaxBins       int

	// Values holds every option by key, for rendering Tag.
	Values map[string]any
}

// AllowList parses the Metrics option.
func (o Options) AllowList() []string {
	if strings.TrimSpace(o.Metrics) == "" {
		return append([]string(nil), DefaultMetrics...)
	}

	return splitList(o.Metrics)
}

// RunTag returns the name of the run's directory.
//
// Without a Tag it is the StartTime. Otherwise each tagged key is rendered
// as "key-value", the pairs are joined with "_" and appended directly to the
// StartTime:
//
//	StartTime "Oct15_14-30", Tag "lr,bs" -> "Oct15_14-30lr-0.01_bs-32"
func (o Options) RunTag() (string, error) {
	if strings.TrimSpace(o.Tag) == "" {
		return o.StartTime, nil
	}

	keys := splitList(o.Tag)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		value, ok := o.lookup(key)
		if !ok {
			return "", wberrors.Newf(
				"tblogger: tensorboard tag key %q is not an option", key).
				Remedy("tag keys must name options, like \"lr,batchsize\"")
		}
		pairs = append(pairs, key+"-"+FormatValue(value))
	}

	return o.StartTime + strings.Join(pairs, "_"), nil
}

func (o Options) lookup(key string) (any, bool) {
	if value, ok := o.Values[key]; ok {
		return value, true
	}

	value, ok := o.Values[strings.ReplaceAll(key, "-", "_")]
	return value, ok
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// FormatValue renders an option value the way ParlAI names run directories,
// so that directories line up with runs logged from Python:
// 0.01 -> "0.01", 1.0 -> "1.0", 1e-05 -> "1e-05", true -> "True",
// nil -> "None".
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return v
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	// The exponent of the shortest representation decides the notation,
	// as in Python's repr.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if f != 0 && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
