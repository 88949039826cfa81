package tfevents

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// FileVersion is the version string written in the first event of a file.
const FileVersion = "brain.Event:2"

// Event is the subset of TensorFlow's Event proto that tblogger writes.
//
// Proto: https://github.com/tensorflow/tensorboard/blob/master/tensorboard/compat/proto/event.proto
type Event struct {
	WallTime    float64 // field 1, seconds since the Unix epoch
	Step        int64   // field 2
	FileVersion string  // field 3
	Summary     *Summary
}

// Summary holds the values logged by one event (field 5 of Event).
type Summary struct {
	Values []*SummaryValue
}

// SummaryValue is one tagged value in a summary.
//
// Exactly one of SimpleValue and Histo is set for the events tblogger
// writes. Other kinds of values are skipped when reading.
type SummaryValue struct {
	Tag         string
	SimpleValue *float32
	Histo       *Histogram
}

// Histogram is TensorFlow's HistogramProto.
//
// Bucket[i] counts the values in (BucketLimit[i-1], BucketLimit[i]], where
// the first bucket's lower bound is -inf.
type Histogram struct {
	Min        float64
	Max        float64
	Num        float64
	Sum        float64
	SumSquares float64

	BucketLimit []float64
	Bucket      []float64
}

// ScalarEvent returns an event with a single scalar value.
func ScalarEvent(wallTime float64, step int64, tag string, value float64) *Event {
	v := float32(value)
	return &Event{
		WallTime: wallTime,
		Step:     step,
		Summary: &Summary{Values: []*SummaryValue{
			{Tag: tag, SimpleValue: &v},
		}},
	}
}

// HistogramEvent returns an event with a single histogram value.
func HistogramEvent(wallTime float64, step int64, tag string, histo *Histogram) *Event {
	return &Event{
		WallTime: wallTime,
		Step:     step,
		Summary: &Summary{Values: []*SummaryValue{
			{Tag: tag, Histo: histo},
		}},
	}
}

// Marshal returns the event's protobuf wire encoding.
func (e *Event) Marshal() []byte {
	var b []byte
	b = appendDouble(b, 1, e.WallTime)
	if e.Step != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Step))
	}
	if e.FileVersion != "" {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, e.FileVersion)
	}
	if e.Summary != nil {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Summary.marshal())
	}
	return b
}

func (s *Summary) marshal() []byte {
	var b []byte
	for _, value := range s.Values {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, value.marshal())
	}
	return b
}

func (v *SummaryValue) marshal() []byte {
	var b []byte
	if v.Tag != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, v.Tag)
	}
	if v.SimpleValue != nil {
		b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(*v.SimpleValue))
	}
	if v.Histo != nil {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, v.Histo.marshal())
	}
	return b
}

func (h *Histogram) marshal() []byte {
	var b []byte
	b = appendDouble(b, 1, h.Min)
	b = appendDouble(b, 2, h.Max)
	b = appendDouble(b, 3, h.Num)
	b = appendDouble(b, 4, h.Sum)
	b = appendDouble(b, 5, h.SumSquares)
	b = appendPackedDoubles(b, 6, h.BucketLimit)
	b = appendPackedDoubles(b, 7, h.Bucket)
	return b
}

func appendDouble(b []byte, num protowire.Number, x float64) []byte {
	// Proto3 omits default values, but -0 is not the default.
	if math.Float64bits(x) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(x))
}

func appendPackedDoubles(b []byte, num protowire.Number, xs []float64) []byte {
	if len(xs) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(8*len(xs)))
	for _, x := range xs {
		b = protowire.AppendFixed64(b, math.Float64bits(x))
	}
	return b
}

// UnmarshalEvent parses an Event from its protobuf wire encoding.
//
// Unknown fields are skipped.
func UnmarshalEvent(b []byte) (*Event, error) {
	event := &Event{}

	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(b)
			event.WallTime = math.Float64frombits(x)
			return n, nil

		case num == 2 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			event.Step = int64(x)
			return n, nil

		case num == 3 && typ == protowire.BytesType:
			x, n := protowire.ConsumeString(b)
			event.FileVersion = x
			return n, nil

		case num == 5 && typ == protowire.BytesType:
			x, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			summary, err := unmarshalSummary(x)
			if err != nil {
				return 0, err
			}
			event.Summary = summary
			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})

	if err != nil {
		return nil, fmt.Errorf("tfevents: failed to parse event: %v", err)
	}
	return event, nil
}

func unmarshalSummary(b []byte) (*Summary, error) {
	summary := &Summary{}

	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}

		x, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		value, err := unmarshalSummaryValue(x)
		if err != nil {
			return 0, err
		}
		summary.Values = append(summary.Values, value)
		return n, nil
	})

	return summary, err
}

func unmarshalSummaryValue(b []byte) (*SummaryValue, error) {
	value := &SummaryValue{}

	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			x, n := protowire.ConsumeString(b)
			value.Tag = x
			return n, nil

		case num == 2 && typ == protowire.Fixed32Type:
			x, n := protowire.ConsumeFixed32(b)
			f := math.Float32frombits(x)
			value.SimpleValue = &f
			return n, nil

		case num == 5 && typ == protowire.BytesType:
			x, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			histo, err := unmarshalHistogram(x)
			if err != nil {
				return 0, err
			}
			value.Histo = histo
			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})

	return value, err
}

func unmarshalHistogram(b []byte) (*Histogram, error) {
	histo := &Histogram{}

	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var scalar *float64
		var repeated *[]float64

		switch num {
		case 1:
			scalar = &histo.Min
		case 2:
			scalar = &histo.Max
		case 3:
			scalar = &histo.Num
		case 4:
			scalar = &histo.Sum
		case 5:
			scalar = &histo.SumSquares
		case 6:
			repeated = &histo.BucketLimit
		case 7:
			repeated = &histo.Bucket
		}

		switch {
		case scalar != nil && typ == protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(b)
			*scalar = math.Float64frombits(x)
			return n, nil

		case repeated != nil && typ == protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(b)
			*repeated = append(*repeated, math.Float64frombits(x))
			return n, nil

		case repeated != nil && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			if len(packed)%8 != 0 {
				return 0, errors.New("packed doubles have a partial element")
			}
			for len(packed) > 0 {
				x, m := protowire.ConsumeFixed64(packed)
				*repeated = append(*repeated, math.Float64frombits(x))
				packed = packed[m:]
			}
			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})

	return histo, err
}

// consumeFields calls consume for each field in a message.
//
// consume receives the bytes after the field's tag and returns how many of
// them the field's value used, or a negative protowire error code.
func consumeFields(
	b []byte,
	consume func(num protowire.Number, typ protowire.Type, b []byte) (int, error),
) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := consume(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}

	return nil
}
