// Package scenario reads MovingAI benchmark files: ".map" obstacle grids and
// ".scen" lists of start/goal tasks.
package scenario

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/23skdu/costfield/internal/errors"
	"github.com/23skdu/costfield/internal/grid"
)

const maxLine = 1 << 20

// Entry is one line of a .scen file.
type Entry struct {
	ID        int
	Bucket    int
	Map       string
	MapWidth  int
	MapHeight int
	Start     grid.Cell
	Goal      grid.Cell
	Optimal   float64
}

// Task returns the entry's agent/goal pair.
func (e Entry) Task() grid.Task {
	return grid.Task{Agent: e.Start, Goal: e.Goal}
}

// Tasks converts entries to tasks, preserving order.
func Tasks(entries []Entry) []grid.Task {
	out := make([]grid.Task, len(entries))
	for i, e := range entries {
		out[i] = e.Task()
	}
	return out
}

// ParseMap reads a map in MovingAI format: header lines ("type", "height N",
// "width N") up to a line starting with "map", then one row per line. Spaces
// inside rows are ignored, rows longer than the declared width are truncated
// and blank lines are skipped. '.', 'G' and 'S' are free; anything else is an
// obstacle.
func ParseMap(r io.Reader) (*grid.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	width, height := 0, 0
	line := 0
	header := false
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(text, "height"):
			n, err := headerValue(text, line)
			if err != nil {
				return nil, err
			}
			height = n
		case strings.HasPrefix(text, "width"):
			n, err := headerValue(text, line)
			if err != nil {
				return nil, err
			}
			width = n
		case strings.HasPrefix(text, "map"):
			header = true
		}
		if header {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapStorageError(err, "parse_map", "read failed")
	}
	if !header {
		return nil, errors.NewParseError("parse_map", "missing \"map\" keyword")
	}

	blocked := make([]bool, 0, width*height)
	rows := 0
	for rows < height && sc.Scan() {
		text := strings.ReplaceAll(strings.TrimSpace(sc.Text()), " ", "")
		if text == "" {
			continue
		}
		row := []rune(text)
		if len(row) > width {
			row = row[:width]
		}
		for _, c := range row {
			blocked = append(blocked, !grid.Passable(c))
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapStorageError(err, "parse_map", "read failed")
	}

	g, err := grid.New(width, height, blocked)
	if err != nil {
		return nil, errors.WrapParseError(err, "parse_map", "grid does not match header").
			WithContext("width", width).
			WithContext("height", height).
			WithContext("cells", len(blocked))
	}
	return g, nil
}

func headerValue(text string, line int) (int, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, errors.NewParseError("parse_map", "header value missing").WithContext("line", line)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0, errors.NewParseError("parse_map", "invalid header value").
			WithContext("line", line).
			WithContext("value", fields[1])
	}
	return n, nil
}

// LoadMap parses the map file at path.
func LoadMap(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapStorageError(err, "load_map", "open failed").WithContext("path", path)
	}
	defer f.Close()

	g, err := ParseMap(f)
	if err != nil {
		return nil, errors.WrapParseError(err, "load_map", "invalid map file").WithContext("path", path)
	}
	return g, nil
}

// ParseScenarios reads .scen lines of the form
//
//	bucket map width height startX startY goalX goalY optimal
//
// Blank lines and the "version" header are skipped. IDs count accepted
// entries from zero.
func ParseScenarios(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var entries []Entry
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] == "version" {
			continue
		}
		if len(fields) < 9 {
			return nil, errors.NewParseError("parse_scenarios", "expected 9 fields").
				WithContext("line", line).
				WithContext("fields", len(fields))
		}

		var ints [7]int
		for i, idx := range []int{0, 2, 3, 4, 5, 6, 7} {
			n, err := strconv.Atoi(fields[idx])
			if err != nil {
				return nil, errors.WrapParseError(err, "parse_scenarios", "invalid integer field").
					WithContext("line", line).
					WithContext("column", idx)
			}
			ints[i] = n
		}
		optimal, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return nil, errors.WrapParseError(err, "parse_scenarios", "invalid optimal length").
				WithContext("line", line)
		}

		entries = append(entries, Entry{
			ID:        len(entries),
			Bucket:    ints[0],
			Map:       fields[1],
			MapWidth:  ints[1],
			MapHeight: ints[2],
			Start:     grid.Cell{X: ints[3], Y: ints[4]},
			Goal:      grid.Cell{X: ints[5], Y: ints[6]},
			Optimal:   optimal,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapStorageError(err, "parse_scenarios", "read failed")
	}
	return entries, nil
}

// LoadScenarios parses the .scen file at path.
func LoadScenarios(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapStorageError(err, "load_scenarios", "open failed").WithContext("path", path)
	}
	defer f.Close()

	entries, err := ParseScenarios(f)
	if err != nil {
		return nil, errors.WrapParseError(err, "load_scenarios", "invalid scenario file").WithContext("path", path)
	}
	return entries, nil
}
