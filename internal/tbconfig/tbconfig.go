// Package tbconfig reads tblogger options from flags, the environment and a
// config file.
package tbconfig

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/tblogger"
)

// EnvPrefix prefixes environment variables, as in TBLOGGER_DATAPATH.
const EnvPrefix = "TBLOGGER"

// StartTimeLayout formats the default start time, like "Oct15_14-30".
const StartTimeLayout = "Jan02_15-04"

// Option keys. Flags use the same names with "-" in place of "_".
const (
	KeyLog       = "tensorboard_log"
	KeyTag       = "tensorboard_tag"
	KeyMetrics   = "tensorboard_metrics"
	KeyBackend   = "tensorboard_backend"
	KeyUploadURL = "tensorboard_upload_url"
	KeyMaxQueue  = "tensorboard_max_queue"
	KeyFlushSecs = "tensorboard_flush_secs"
	KeyMaxBins   = "tensorboard_max_bins"
	KeyDataPath  = "datapath"
	KeyStartTime = "starttime"

	// keyOptions holds free-form "key=value" options for run tags.
	keyOptions = "option"
)

var flagKeys = []string{
	KeyLog,
	KeyTag,
	KeyMetrics,
	KeyBackend,
	KeyUploadURL,
	KeyMaxQueue,
	KeyFlushSecs,
	KeyMaxBins,
	KeyDataPath,
	KeyStartTime,
	keyOptions,
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// AddFlags registers the tblogger flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.Bool(flagName(KeyLog), false,
		"Log metrics to TensorBoard")
	flags.String(flagName(KeyTag), "",
		"Comma-separated option keys to include in the run directory name")
	flags.String(flagName(KeyMetrics), "",
		"Comma-separated metrics to log (default \"ppl,loss\")")
	flags.String(flagName(KeyBackend), tblogger.DefaultBackend,
		"Writer backend")
	flags.String(flagName(KeyUploadURL), "",
		"Directory or s3://, gs://, az:// URL to copy the log directory to on exit")
	flags.Int(flagName(KeyMaxQueue), 10,
		"Pending events that force a flush")
	flags.Int(flagName(KeyFlushSecs), 120,
		"Seconds between flushes of pending events")
	flags.Int(flagName(KeyMaxBins), 0,
		"Maximum histogram buckets, or 0 for no limit")
	flags.String(KeyDataPath, "./data",
		"Base directory for logs")
	flags.String(KeyStartTime, "",
		"Run start time used to name the run directory (default now, like \"Oct15_14-30\")")
	flags.StringToString(keyOptions, nil,
		"Run options available to --tensorboard-tag, as key=value")
}

// Bind connects the flags and TBLOGGER_* environment variables to v.
//
// Flags take precedence over the environment, which takes precedence over
// the config file.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range flagKeys {
		flag := flags.Lookup(flagName(key))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return wberrors.Enrichf(err, "tbconfig: cannot bind flag %q", flag.Name)
		}
	}

	return nil
}

// Load returns the options configured in v.
//
// Every setting is available to the run tag. "key=value" pairs from the
// option flag are added last and win over settings with the same key.
func Load(v *viper.Viper, now func() time.Time) tblogger.Options {
	startTime := v.GetString(KeyStartTime)
	if startTime == "" {
		startTime = now().Format(StartTimeLayout)
	}

	values := make(map[string]any)
	for key, value := range v.AllSettings() {
		if key == keyOptions {
			continue
		}
		values[normalizeKey(key)] = value
	}
	for key, value := range v.GetStringMapString(keyOptions) {
		values[normalizeKey(key)] = parseOptionValue(value)
	}
	values[KeyStartTime] = startTime

	return tblogger.Options{
		Enabled:   v.GetBool(KeyLog),
		Tag:       v.GetString(KeyTag),
		Metrics:   v.GetString(KeyMetrics),
		DataPath:  v.GetString(KeyDataPath),
		StartTime: startTime,
		Backend:   v.GetString(KeyBackend),
		UploadURL: v.GetString(KeyUploadURL),

		MaxQueue:      v.GetInt(KeyMaxQueue),
		FlushInterval: time.Duration(v.GetInt(KeyFlushSecs)) * time.Second,
		MaxBins:       v.GetInt(KeyMaxBins),

		Values: values,
	}
}

// parseOptionValue converts a flag value to the type a config file would
// have produced for it.
func parseOptionValue(value string) any {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	switch value {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "None", "null":
		return nil
	default:
		return value
	}
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}
