package sweep

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"experiment", "key_length", "efficiency", "eavesdropper", "tactic", "iterations",
	"mean_error_rate", "mode_error_rate", "mean_key_length", "mode_key_length",
	"mean_eavesdropper_mismatch",
}

// WriteCSV writes a header row followed by one row per point
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, p := range points {
		tactic := ""
		if p.Eavesdropper {
			tactic = strconv.Itoa(int(p.Tactic))
		}
		row := []string{
			string(p.Experiment),
			strconv.Itoa(p.KeyLength),
			formatFloat(p.Efficiency),
			strconv.FormatBool(p.Eavesdropper),
			tactic,
			strconv.Itoa(p.Iterations),
			formatFloat(p.MeanErrorRate),
			formatFloat(p.ModeErrorRate),
			formatFloat(p.MeanKeyLength),
			formatFloat(p.ModeKeyLength),
			formatFloat(p.MeanEavesdropperMismatch),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
