package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/jason-s-yu/baloot/internal/validate"
)

// Format selects how a scorecard is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// exported is the serialised shape of a scorecard, with derived figures
// spelled out so consumers need not recompute them.
type exported struct {
	Scorecard  `yaml:",inline"`
	Convention string             `json:"convention" yaml:"convention"`
	Agreement  map[string]float64 `json:"agreement" yaml:"agreement"`
}

func (s *Scorecard) export() exported {
	e := exported{Scorecard: *s, Convention: s.Convention(), Agreement: map[string]float64{}}
	for c, st := range s.Categories {
		e.Agreement[string(c)] = st.Percent()
	}
	return e
}

// Write renders s to w in the given format.
func (s *Scorecard) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.export())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s.export()); err != nil {
			return err
		}
		return enc.Close()
	}
	out, err := s.Render()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Render draws the scorecard as terminal tables.
func (s *Scorecard) Render() (string, error) {
	box := pterm.DefaultBox.WithHorizontalPadding(2)

	totals := pterm.Sprintfln("games      %d (%d failed)", s.Games, s.GamesFailed) +
		pterm.Sprintfln("rounds     %d", s.Rounds) +
		pterm.Sprintfln("scored     %d (%d agreed)", s.Scored, s.RoundsAgree) +
		pterm.Sprintfln("redeals    %d", s.Redeals) +
		pterm.Sprintfln("abandoned  %d", s.Abandoned) +
		pterm.Sprintfln("tricks     %d", s.Tricks) +
		pterm.Sprintf("convention %s", s.Convention())

	var causes strings.Builder
	for i, rc := range RootCauses {
		n := s.RootCauses[rc]
		line := fmt.Sprintf("%-20s %d", rc, n)
		if n > 0 && rc != RuleVariant {
			line = pterm.LightRed(line)
		}
		causes.WriteString(line)
		if i < len(RootCauses)-1 {
			causes.WriteString("\n")
		}
	}

	panels, err := pterm.DefaultPanel.WithPanels([][]pterm.Panel{{
		{Data: box.WithTitle(pterm.LightCyan("|TOTALS|")).WithTitleTopCenter().Sprint(totals)},
		{Data: box.WithTitle(pterm.LightCyan("|ROOT CAUSES|")).WithTitleTopCenter().Sprint(causes.String())},
	}}).Srender()
	if err != nil {
		return "", err
	}

	data := pterm.TableData{{"category", "checked", "agreed", "agreement"}}
	for _, c := range validate.Categories {
		st, ok := s.Categories[c]
		if !ok {
			continue
		}
		pct := fmt.Sprintf("%.1f%%", st.Percent())
		if st.Agreed == st.Checked {
			pct = pterm.LightGreen(pct)
		} else {
			pct = pterm.LightYellow(pct)
		}
		data = append(data, []string{string(c), fmt.Sprint(st.Checked), fmt.Sprint(st.Agreed), pct})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(panels)
	b.WriteString("\n")
	b.WriteString(table)
	b.WriteString("\n")
	for _, f := range s.Failures {
		b.WriteString(pterm.FgRed.Sprintf("failed %s: %s", f.Source, f.Reason))
		b.WriteString("\n")
	}
	return b.String(), nil
}
