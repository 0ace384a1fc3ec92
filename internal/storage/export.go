package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/chemgaloo/internal/reactor"
)

// WriteCSV writes one row per time point: time followed by every species concentration.
func WriteCSV(w io.Writer, trace *reactor.Trace) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, trace.Species...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(trace.Species)+1)
	for i, t := range trace.Times {
		row[0] = formatFloat(t)
		for j, series := range trace.Concentrations {
			row[j+1] = formatFloat(series[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV. Run outcome fields are left empty.
func ReadCSV(r io.Reader) (*reactor.Trace, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "time" {
		return nil, fmt.Errorf("trace csv: missing header")
	}

	species := records[0][1:]
	trace := &reactor.Trace{
		Species:        append([]string(nil), species...),
		Times:          make([]float64, 0, len(records)-1),
		Concentrations: make([][]float64, len(species)),
		Metrics:        make(map[string]float64),
	}

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("trace csv: row %d: %w", i+1, err)
		}
		trace.Times = append(trace.Times, t)
		for j := range species {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("trace csv: row %d: %w", i+1, err)
			}
			trace.Concentrations[j] = append(trace.Concentrations[j], v)
		}
	}
	return trace, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type ExportData struct {
	Run            *RunMetadata `json:"run"`
	Times          []float64    `json:"times,omitempty"`
	Concentrations [][]float64  `json:"concentrations,omitempty"`
}

// ExportJSON writes run metadata and, when present, the full trace as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, trace *reactor.Trace) error {
	data := ExportData{Run: meta}
	if trace != nil {
		data.Times = trace.Times
		data.Concentrations = trace.Concentrations
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
