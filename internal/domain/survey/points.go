package survey

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrMalformedCompletion is returned when a completion cannot be parsed at all.
var ErrMalformedCompletion = errors.New("malformed completion text")

// Points holds the extracted statements of one answer, in completion order.
type Points struct {
	Positive []string
	Negative []string
}

// Empty reports whether no point was extracted.
func (p Points) Empty() bool {
	return len(p.Positive) == 0 && len(p.Negative) == 0
}

// Markers are the section headings the completion service is asked to use.
type Markers struct {
	Positive string
	Negative string
}

var DefaultMarkers = Markers{Positive: "Pros:", Negative: "Cons:"}

var bulletPrefixes = []string{"-", "—", "–", "*"}

const bulletCutset = "-—–*0123456789. "

// ExtractPoints splits text at the first negative marker and collects the
// bulleted or single-digit numbered lines of each side.
func ExtractPoints(text string, m Markers) (Points, error) {
	points := Points{Positive: []string{}, Negative: []string{}}
	if !utf8.ValidString(text) {
		return points, ErrMalformedCompletion
	}

	positiveBlock, negativeBlock := text, ""
	if m.Negative != "" {
		if before, after, found := strings.Cut(text, m.Negative); found {
			positiveBlock, negativeBlock = before, after
		}
	}
	if m.Positive != "" {
		positiveBlock = strings.ReplaceAll(positiveBlock, m.Positive, "")
	}

	points.Positive = collectBullets(positiveBlock)
	points.Negative = collectBullets(negativeBlock)
	return points, nil
}

func collectBullets(block string) []string {
	out := []string{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !isBullet(line) {
			continue
		}
		point := strings.TrimSpace(strings.TrimLeft(line, bulletCutset))
		if point != "" {
			out = append(out, point)
		}
	}
	return out
}

func isBullet(line string) bool {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	// single digit followed by a period, e.g. "3."
	return len(line) >= 2 && line[0] >= '1' && line[0] <= '9' && line[1] == '.'
}

// Format renders the points back in the layout ExtractPoints understands.
func (p Points) Format(m Markers) string {
	var b strings.Builder
	b.WriteString(m.Positive)
	b.WriteString("\n")
	for _, s := range p.Positive {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString(m.Negative)
	b.WriteString("\n")
	for _, s := range p.Negative {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}
