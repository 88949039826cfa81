package replay

import (
	"errors"
	"fmt"

	"github.com/wandb/simplejsonext"

	"github.com/wandb/tblogger/internal/tblogger"
)

type entryKind int

const (
	reportEntry entryKind = iota
	scalarEntry
	histogramEntry
)

// entry is one parsed line of a replay file.
type entry struct {
	kind entryKind
	step int64

	// setting is the report's label, for reportEntry.
	setting string
	report  tblogger.Report

	// name is the scalar or histogram tag.
	name   string
	value  float64
	values []float64
}

func (e *entry) forward(sink Sink) error {
	switch e.kind {
	case scalarEntry:
		return sink.AddScalar(e.name, e.value, e.step)
	case histogramEntry:
		return sink.AddHistogram(e.name, e.values, e.step)
	default:
		return sink.AddMetrics(e.setting, e.step, e.report)
	}
}

func parseEntry(line []byte) (*entry, error) {
	obj, err := simplejsonext.UnmarshalObjectString(string(line))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}

	step, err := stepOf(obj)
	if err != nil {
		return nil, err
	}

	switch {
	case obj["scalar"] != nil:
		name, ok := obj["scalar"].(string)
		if !ok {
			return nil, errors.New(`"scalar" must be a string`)
		}
		value, ok := toFloat(obj["value"])
		if !ok {
			return nil, errors.New(`"value" must be a number`)
		}
		return &entry{kind: scalarEntry, step: step, name: name, value: value}, nil

	case obj["histogram"] != nil:
		name, ok := obj["histogram"].(string)
		if !ok {
			return nil, errors.New(`"histogram" must be a string`)
		}
		rawValues, ok := obj["values"].([]any)
		if !ok {
			return nil, errors.New(`"values" must be a list`)
		}
		values := make([]float64, len(rawValues))
		for i, raw := range rawValues {
			if values[i], ok = toFloat(raw); !ok {
				return nil, fmt.Errorf(`"values"[%d] is not a number`, i)
			}
		}
		return &entry{kind: histogramEntry, step: step, name: name, values: values}, nil

	case obj["report"] != nil:
		setting, ok := obj["setting"].(string)
		if !ok {
			return nil, errors.New(`"setting" must be a string`)
		}
		rawReport, ok := obj["report"].(map[string]any)
		if !ok {
			return nil, errors.New(`"report" must be an object`)
		}
		report := make(tblogger.Report, len(rawReport))
		for key, raw := range rawReport {
			// Reports may carry non-numeric entries; they can't be plotted.
			if value, ok := toFloat(raw); ok {
				report[key] = value
			}
		}
		return &entry{kind: reportEntry, step: step, setting: setting, report: report}, nil

	default:
		return nil, errors.New(`expected a "report", "scalar" or "histogram" key`)
	}
}

func stepOf(obj map[string]any) (int64, error) {
	switch step := obj["step"].(type) {
	case int64:
		return step, nil
	case float64:
		if step != float64(int64(step)) {
			return 0, fmt.Errorf(`"step" must be an integer, got %v`, step)
		}
		return int64(step), nil
	case nil:
		return 0, errors.New(`missing "step"`)
	default:
		return 0, fmt.Errorf(`"step" must be an integer, got %v`, step)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
