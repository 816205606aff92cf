package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotObject is returned when a plan document is not a JSON object.
var ErrNotObject = errors.New("plan: document is not an object")

// Parse decodes a JSON plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p Pitch) MarshalJSON() ([]byte, error) {
	if !p.ok {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(p.n), 10), nil
}

// UnmarshalJSON accepts integral numbers and numeric strings. Anything else
// leaves p invalid without failing.
func (p *Pitch) UnmarshalJSON(data []byte) error {
	n, ok := integer(data)
	*p = Pitch{n: n, ok: ok}
	return nil
}

// UnmarshalJSON never fails. A missing step decodes as 0; an unusable one
// decodes as -1 so the event is dropped at render time.
func (e *NoteEvent) UnmarshalJSON(data []byte) error {
	*e = NoteEvent{Step: -1, Velocity: DefaultVelocity, Length: 1}
	f := fields(data)
	if f == nil {
		return nil
	}
	if raw, ok := f["step"]; !ok {
		e.Step = 0
	} else if n, ok := integer(raw); ok {
		e.Step = n
	}
	e.Note.UnmarshalJSON(f["note"])
	if v, ok := number(f["velocity"]); ok {
		e.Velocity = min(127, max(0, int(math.Round(v))))
	}
	if v, ok := number(f["length"]); ok && v >= 1 {
		e.Length = int(v)
	}
	return nil
}

// UnmarshalJSON never fails. Bars without a usable index get Index -1.
func (b *Bar) UnmarshalJSON(data []byte) error {
	*b = Bar{Index: -1}
	f := fields(data)
	if f == nil {
		return nil
	}
	if n, ok := integer(f["index"]); ok {
		b.Index = n
	}
	for _, raw := range array(f["events"]) {
		var e NoteEvent
		e.UnmarshalJSON(raw)
		b.Events = append(b.Events, e)
	}
	return nil
}

// UnmarshalJSON skips instruments whose value is not a list of bars.
func (l *Layer) UnmarshalJSON(data []byte) error {
	*l = Layer{}
	for name, raw := range fields(data) {
		items := array(raw)
		if items == nil {
			continue
		}
		bars := make([]Bar, len(items))
		for i, item := range items {
			bars[i].UnmarshalJSON(item)
		}
		(*l)[name] = bars
	}
	return nil
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	*m = Meta{}
	f := fields(data)
	if v, ok := number(f["tempo_bpm"]); ok {
		m.TempoBPM = v
	}
	if n, ok := integer(f["bars"]); ok {
		m.Bars = n
	}
	if v, ok := number(f["length_seconds"]); ok {
		m.LengthSeconds = v
	}
	for _, raw := range array(f["instruments"]) {
		var name string
		if json.Unmarshal(raw, &name) == nil && name != "" {
			m.Instruments = append(m.Instruments, name)
		}
	}
	return nil
}

// UnmarshalJSON requires the document to be an object. Its members are
// decoded leniently.
func (p *Plan) UnmarshalJSON(data []byte) error {
	f := fields(data)
	if f == nil {
		return ErrNotObject
	}
	*p = Plan{}
	p.Meta.UnmarshalJSON(f["meta"])
	if layers := fields(f["layers"]); layers != nil {
		p.Layers = make(map[string]Layer, len(layers))
		for name, raw := range layers {
			var l Layer
			l.UnmarshalJSON(raw)
			p.Layers[name] = l
		}
	}
	if f["pattern"] != nil {
		p.Pattern.UnmarshalJSON(f["pattern"])
	}
	return nil
}

// fields returns the members of a JSON object, or nil for anything else.
func fields(data []byte) map[string]json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var f map[string]json.RawMessage
	if json.Unmarshal(data, &f) != nil {
		return nil
	}
	return f
}

// array returns the elements of a JSON array, or nil for anything else.
func array(data []byte) []json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var a []json.RawMessage
	if json.Unmarshal(data, &a) != nil {
		return nil
	}
	return a
}

// number parses a finite JSON number or numeric string.
func number(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0, false
	}
	var v float64
	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		if json.Unmarshal(data, &v) != nil || bytes.Equal(data, []byte("null")) {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// integer parses a number that has no fractional part.
func integer(data []byte) (int, bool) {
	v, ok := number(data)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
