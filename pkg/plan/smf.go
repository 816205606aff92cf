package plan

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 960
	// One bar of 8 steps is a 4/4 bar of eighth notes.
	ticksPerStep = ticksPerQuarter / 2

	defaultTempo = 120
	defaultNote  = 60
)

type midiEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// WriteSMF writes p as a format 1 Standard MIDI File: a conductor track with
// tempo and meter followed by one track per instrument on its own channel.
// Events without a pitch are written at middle C; events outside the step
// grid are skipped.
func WriteSMF(w io.Writer, p *Plan) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	tempo := p.Meta.TempoBPM
	if tempo <= 0 {
		tempo = defaultTempo
	}
	var conductor smf.Track
	conductor.Add(0, smf.MetaMeter(4, 4))
	conductor.Add(0, smf.MetaTempo(tempo))
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return fmt.Errorf("plan: add conductor track: %w", err)
	}

	for i, name := range p.InstrumentNames() {
		ch := uint8(i % 16)
		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(name))
		var last uint32
		for _, ev := range instrumentEvents(p.BarsFor(name)) {
			msg := midi.NoteOff(ch, ev.key)
			if ev.on {
				msg = midi.NoteOn(ch, ev.key, ev.vel)
			}
			tr.Add(ev.tick-last, msg)
			last = ev.tick
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("plan: add track %s: %w", name, err)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("plan: write smf: %w", err)
	}
	return nil
}

// instrumentEvents flattens bars into note on/off pairs ordered by tick,
// with note-offs before note-ons on the same tick.
func instrumentEvents(bars []Bar) []midiEvent {
	var events []midiEvent
	for _, b := range bars {
		if b.Index < 0 {
			continue
		}
		for _, e := range b.Events {
			if e.Step < 0 || e.Step >= StepsPerBar || e.Velocity == 0 {
				continue
			}
			key := defaultNote
			if e.Note.Valid() {
				key = min(127, max(0, e.Note.MIDI()))
			}
			start := uint32((b.Index*StepsPerBar + e.Step) * ticksPerStep)
			end := start + uint32(e.Length*ticksPerStep)
			events = append(events,
				midiEvent{tick: start, on: true, key: uint8(key), vel: uint8(e.Velocity)},
				midiEvent{tick: end, key: uint8(key)},
			)
		}
	}
	slices.SortStableFunc(events, func(a, b midiEvent) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		switch {
		case a.on == b.on:
			return 0
		case !a.on:
			return -1
		default:
			return 1
		}
	})
	return events
}
