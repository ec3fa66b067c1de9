package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/pterm/pterm"

	"github.com/jason-s-yu/baloot/internal/config"
	"github.com/jason-s-yu/baloot/internal/corpus"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/wire"
)

func decodeCommand(fs *flag.FlagSet) (func(*config.Config), runFunc) {
	events := fs.Bool("events", false, "print every decoded event")
	return nil, func(e *env, args []string) (int, error) {
		return runDecode(e, args, *events)
	}
}

func runDecode(e *env, args []string, printEvents bool) (int, error) {
	if len(args) != 1 {
		return exitUsage, errors.New("decode takes exactly one capture file")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return exitFailure, err
	}
	defer f.Close()

	frames, err := corpus.ReadFrames(f, e.cfg.MaxRecord)
	if err != nil {
		if !errors.Is(err, corpus.ErrTruncated) || len(frames) == 0 {
			return exitFailure, err
		}
		e.log.WithError(err).Warn("capture ends mid-record")
	}

	s := wire.NewStream(wire.Decoder{MaxSize: e.cfg.MaxFrameSize, MaxDepth: e.cfg.MaxDepth}, e.log)
	byType := make(map[event.Type]int)
	for i, raw := range frames {
		for _, ev := range s.Feed(raw) {
			byType[ev.Type()]++
			if printEvents {
				fmt.Fprintf(e.stdout, "%5d %-15s %+v\n", i, ev.Type(), ev)
			}
		}
	}
	st := s.Stats()

	data := pterm.TableData{
		{"counter", "value"},
		{"frames", fmt.Sprint(st.Frames)},
		{"decoded", fmt.Sprint(st.Decoded)},
		{"control", fmt.Sprint(st.Control)},
		{"events", fmt.Sprint(st.Events)},
		{"dropped", fmt.Sprint(st.Dropped)},
	}
	classes := make([]wire.Class, 0, len(st.ByClass))
	for c := range st.ByClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, c := range classes {
		data = append(data, []string{"class " + c.String(), fmt.Sprint(st.ByClass[c])})
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		data = append(data, []string{"event " + t, fmt.Sprint(byType[event.Type(t)])})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return exitFailure, err
	}
	fmt.Fprintln(e.stdout, table)
	for _, de := range s.Errors() {
		fmt.Fprintln(e.stdout, pterm.FgRed.Sprint(de.Error()))
	}
	return exitOK, nil
}
