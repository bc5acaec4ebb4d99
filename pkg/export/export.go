// Package export writes plan reports in human and machine readable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/energyplan/core/report"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Formats lists the accepted values of Write's format argument.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatYAML}

// Write encodes rep to w in the requested format.
func Write(w io.Writer, format string, rep report.Report) error {
	switch format {
	case FormatText, "":
		return WriteText(w, rep)
	case FormatJSON:
		return WriteJSON(w, rep)
	case FormatCSV:
		return WriteCSV(w, rep)
	case FormatYAML, "yml":
		return WriteYAML(w, rep)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteText prints the per-scenario breakdown followed by the total cost.
func WriteText(w io.Writer, rep report.Report) error {
	ew := &errWriter{w: w}
	if !rep.Optimal() {
		ew.printf("%s\n", rep.Message)
		return ew.err
	}
	for _, s := range rep.Scenarios {
		ew.printf("\nScenario: %s\n", s.Name)
		for _, g := range s.Generation {
			ew.printf("Energy produced in %s by %s: %s %s\n", g.Region, g.Technology, num(g.MW), rep.Unit)
		}
		for _, f := range s.Trade {
			ew.printf("Energy traded from %s to %s: %s %s\n", f.From, f.To, num(f.MW), rep.Unit)
		}
		ew.printf("Scenario cost: %s %s\n", num(s.Cost), rep.Currency)
	}
	ew.printf("\nExpected operating cost: %s %s\n", num(rep.ExpectedCost), rep.Currency)
	ew.printf("CVaR term: %s %s (VaR threshold %s)\n", num(rep.RiskCost), rep.Currency, num(rep.VaR))
	ew.printf("\nTotal expected cost: %s %s\n", num(rep.Objective), rep.Currency)
	return ew.err
}

// WriteJSON writes the report as a single JSON document.
func WriteJSON(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, rep report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per solved quantity plus one cost row per
// scenario and a final objective row.
func WriteCSV(w io.Writer, rep report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scenario", "kind", "from", "to", "technology", "value"}); err != nil {
		return err
	}
	for _, s := range rep.Scenarios {
		name := string(s.Name)
		for _, g := range s.Generation {
			if err := cw.Write([]string{name, "generation", string(g.Region), "", string(g.Technology), csvNum(g.MW)}); err != nil {
				return err
			}
		}
		for _, f := range s.Trade {
			if err := cw.Write([]string{name, "trade", string(f.From), string(f.To), "", csvNum(f.MW)}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{name, "cost", "", "", "", csvNum(s.Cost)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"", "objective", "", "", "", csvNum(rep.Objective)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func csvNum(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
