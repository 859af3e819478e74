package mfa

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Vidnolunovich/vo-mfa-service/internal/models"
)

// parseTextGrid extracts word intervals from a long-format Praat
// TextGrid. Only the tier named "words" is read, and empty marks (the
// silence intervals between words) are skipped. Timestamps are rounded
// to four decimals.
func parseTextGrid(r io.Reader) ([]models.WordInterval, error) {
	var (
		words      []models.WordInterval
		inWords    bool
		inInterval bool
		xmin, xmax float64
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "name ="):
			name, err := quotedValue(line)
			if err != nil {
				return nil, err
			}
			inWords = strings.EqualFold(name, "words")
			inInterval = false

		case strings.HasPrefix(line, "intervals ["):
			inInterval = true

		case inInterval && strings.HasPrefix(line, "xmin ="):
			v, err := numberValue(line)
			if err != nil {
				return nil, err
			}
			xmin = v

		case inInterval && strings.HasPrefix(line, "xmax ="):
			v, err := numberValue(line)
			if err != nil {
				return nil, err
			}
			xmax = v

		case inInterval && strings.HasPrefix(line, "text ="):
			mark, err := quotedValue(line)
			if err != nil {
				return nil, err
			}
			if mark = strings.TrimSpace(mark); inWords && mark != "" {
				words = append(words, models.WordInterval{
					Word:  mark,
					Start: round4(xmin),
					End:   round4(xmax),
				})
			}
			inInterval = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func numberValue(line string) (float64, error) {
	_, val, ok := strings.Cut(line, "=")
	if !ok {
		return 0, fmt.Errorf("malformed TextGrid line %q", line)
	}
	return strconv.ParseFloat(strings.TrimSpace(val), 64)
}

// quotedValue unquotes a Praat string, where doubled quotes escape a
// literal quote.
func quotedValue(line string) (string, error) {
	_, val, ok := strings.Cut(line, "=")
	if !ok {
		return "", fmt.Errorf("malformed TextGrid line %q", line)
	}
	val = strings.TrimSpace(val)
	if len(val) < 2 || val[0] != '"' || val[len(val)-1] != '"' {
		return "", fmt.Errorf("unquoted TextGrid string %q", line)
	}
	return strings.ReplaceAll(val[1:len(val)-1], `""`, `"`), nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
