package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/runningwild/kneedle/pkg/config"
	"github.com/runningwild/kneedle/pkg/datagen"
)

// readCurve parses x and y columns from CSV. Lines starting with '#' are
// comments.
func readCurve(r io.Reader, in config.Input) (x, y []float64, err error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	need := max(in.XColumn, in.YColumn)
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if first && in.Header {
			first = false
			continue
		}
		first = false

		line, _ := cr.FieldPos(0)
		if len(rec) <= need {
			return nil, nil, fmt.Errorf("line %d: want at least %d columns, got %d", line, need+1, len(rec))
		}
		xv, err := parseField(rec[in.XColumn])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d, column %d: %w", line, in.XColumn, err)
		}
		yv, err := parseField(rec[in.YColumn])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d, column %d: %w", line, in.YColumn, err)
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	return x, y, nil
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// loadCurve reads a named fixture, a CSV file, or stdin when path is "-".
func loadCurve(path, fixture string, in config.Input) (x, y []float64, err error) {
	if fixture != "" {
		return datagen.ByName(fixture)
	}
	if path == "" {
		return nil, nil, fmt.Errorf("no input: pass a CSV file or --fixture")
	}
	if path == "-" {
		return readCurve(os.Stdin, in)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	x, y, err = readCurve(f, in)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return x, y, nil
}
