package mine

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Input file suffixes appended to the cave info path.
const (
	NamesSuffix   = "_data.txt"
	AnswersSuffix = "_answer.txt"
	GraphSuffix   = "_graph.txt"
)

// ErrBadGraph is returned when the adjacency grid cannot be parsed
var ErrBadGraph = errors.New("malformed adjacency grid")

// Paths returns the three input files for a cave info path.
func Paths(prefix string) (names, answers, graph string) {
	return prefix + NamesSuffix, prefix + AnswersSuffix, prefix + GraphSuffix
}

// Load reads a mine from the three files sharing prefix. Any missing or
// malformed file is an error; a run never starts on a partial mine.
func Load(prefix string) (*Mine, error) {
	namesPath, answersPath, graphPath := Paths(prefix)

	names, err := readLinesFile(namesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load room names: %w", err)
	}

	answers, err := readLinesFile(answersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	f, err := os.Open(graphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	defer f.Close()

	adjacency, err := ReadAdjacency(f, len(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", graphPath, err)
	}

	return New(names, answers, adjacency)
}

// ReadLines returns every line of r, index = room ID.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func readLinesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// ReadAdjacency parses an n x n grid of comma-space separated 0/1 tokens.
// The grid is column-major: input line i fills column i across all rows.
func ReadAdjacency(r io.Reader, n int) ([][]bool, error) {
	adjacency := make([][]bool, n)
	for i := range adjacency {
		adjacency[i] = make([]bool, n)
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = n
	reader.ReuseRecord = true

	column := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadGraph, err)
		}
		if column >= n {
			return nil, fmt.Errorf("%w: more than %d lines", ErrBadGraph, n)
		}

		for row, field := range record {
			switch strings.TrimSpace(field) {
			case "1":
				adjacency[row][column] = true
			case "0":
			default:
				return nil, fmt.Errorf("%w: line %d, column %d: invalid token %q", ErrBadGraph, column+1, row+1, field)
			}
		}
		column++
	}

	if column != n {
		return nil, fmt.Errorf("%w: %d lines, want %d", ErrBadGraph, column, n)
	}
	return adjacency, nil
}
