package tbconfig_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/internal/tbconfig"
)

var fixedNow = func() time.Time {
	return time.Date(2026, time.October, 15, 14, 30, 0, 0, time.UTC)
}

func load(t *testing.T, args []string, config string) *viper.Viper {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	tbconfig.AddFlags(flags)
	require.NoError(t, flags.Parse(args))

	v := viper.New()
	require.NoError(t, tbconfig.Bind(v, flags))
	if config != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(config)))
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	opts := tbconfig.Load(load(t, nil, ""), fixedNow)

	assert.False(t, opts.Enabled)
	assert.Equal(t, "Oct15_14-30", opts.StartTime)
	assert.Equal(t, "tensorboard", opts.Backend)
	assert.Equal(t, "./data", opts.DataPath)
	assert.Empty(t, opts.Tag)
	assert.Equal(t, []string{"ppl", "loss"}, opts.AllowList())
	assert.Equal(t, 10, opts.MaxQueue)
	assert.Equal(t, 2*time.Minute, opts.FlushInterval)
	assert.Zero(t, opts.MaxBins)
}

func TestLoad_WriterOptions(t *testing.T) {
	v := load(t, []string{
		"--tensorboard-max-queue=3",
		"--tensorboard-max-bins=32",
	}, "tensorboard_flush_secs: 5\n")

	opts := tbconfig.Load(v, fixedNow)

	assert.Equal(t, 3, opts.MaxQueue)
	assert.Equal(t, 5*time.Second, opts.FlushInterval)
	assert.Equal(t, 32, opts.MaxBins)
}

func TestLoad_Flags(t *testing.T) {
	v := load(t, []string{
		"--tensorboard-log",
		"--tensorboard-tag=lr,bs",
		"--tensorboard-metrics=acc, f1",
		"--datapath=/tmp/data",
		"--starttime=Jan01_00-00",
		"--option=lr=0.01",
		"--option=bs=32",
	}, "")

	opts := tbconfig.Load(v, fixedNow)
	tag, err := opts.RunTag()

	require.NoError(t, err)
	assert.True(t, opts.Enabled)
	assert.Equal(t, "/tmp/data", opts.DataPath)
	assert.Equal(t, []string{"acc", "f1"}, opts.AllowList())
	assert.Equal(t, "Jan01_00-00lr-0.01_bs-32", tag)
}

func TestLoad_ConfigFileValuesAreTaggable(t *testing.T) {
	v := load(t, []string{"--tensorboard-tag=lr,batchsize"}, `
lr: 0.001
batchsize: 64
tensorboard_metrics: ppl
`)

	opts := tbconfig.Load(v, fixedNow)
	tag, err := opts.RunTag()

	require.NoError(t, err)
	assert.Equal(t, "Oct15_14-30lr-0.001_batchsize-64", tag)
	assert.Equal(t, []string{"ppl"}, opts.AllowList())
}

func TestLoad_FlagOverridesConfig(t *testing.T) {
	v := load(t, []string{"--datapath=/from/flag"}, "datapath: /from/config\n")

	assert.Equal(t, "/from/flag", tbconfig.Load(v, fixedNow).DataPath)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TBLOGGER_TENSORBOARD_UPLOAD_URL", "gs://bucket/runs")

	opts := tbconfig.Load(load(t, nil, ""), fixedNow)

	assert.Equal(t, "gs://bucket/runs", opts.UploadURL)
}

func TestLoad_NormalizesDashedKeys(t *testing.T) {
	v := load(t, []string{"--tensorboard-tag=batch_size"}, "batch-size: 16\n")

	tag, err := tbconfig.Load(v, fixedNow).RunTag()

	require.NoError(t, err)
	assert.Equal(t, "Oct15_14-30batch_size-16", tag)
}

func TestLoad_OptionValuesAreTyped(t *testing.T) {
	v := load(t, []string{
		"--tensorboard-tag=lr,bs,dropout,fp16,name,none",
		"--option=lr=1e-5,bs=32,dropout=1,fp16=true,name=base,none=None",
	}, "")

	tag, err := tbconfig.Load(v, fixedNow).RunTag()

	require.NoError(t, err)
	assert.Equal(t,
		"Oct15_14-30lr-1e-05_bs-32_dropout-1_fp16-True_name-base_none-None",
		tag)
}
