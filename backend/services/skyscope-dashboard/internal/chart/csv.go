package chart

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes one row per point with a column per sensor. Missing values are empty cells.
func WriteCSV(w io.Writer, points []Point, sensors []string) error {
	out := csv.NewWriter(w)
	header := append([]string{"timestamp"}, sensors...)
	if err := out.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, p := range points {
		record[0] = Label(p.Timestamp)
		for i, id := range sensors {
			record[i+1] = ""
			if v := p.Values[id]; v != nil {
				record[i+1] = strconv.FormatFloat(*v, 'f', -1, 64)
			}
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
