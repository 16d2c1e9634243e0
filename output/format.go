package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects how a Summary is written.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatMsgpack}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or msgpack)", s)
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	bitsColor   = color.New(color.FgYellow)
	barColor    = color.New(color.FgGreen)
	tagColor    = color.New(color.FgMagenta)
)

// Write renders s in format f. Colour applies to the text format only.
func Write(w io.Writer, f Format, s Summary, colored bool) error {
	switch f {
	case FormatText, "":
		return WriteText(w, s, colored)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(s)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// ReadMsgpack decodes a Summary written by Write in msgpack format.
func ReadMsgpack(r io.Reader) (Summary, error) {
	var s Summary
	err := msgpack.NewDecoder(r).Decode(&s)
	return s, err
}

const barWidth = 40

// WriteText renders a histogram of the counts and the last shot's records.
func WriteText(w io.Writer, s Summary, colored bool) error {
	paint := func(c *color.Color, format string, args ...any) string {
		if !colored {
			return fmt.Sprintf(format, args...)
		}
		c.EnableColor()
		return c.Sprintf(format, args...)
	}

	var b strings.Builder
	title := s.Source
	if s.Entry != "" {
		title += " @" + s.Entry
	}
	fmt.Fprintf(&b, "%s\n", paint(headerColor, "%s (%d shots)", strings.TrimSpace(title), s.Shots))

	width := 0
	for _, c := range s.Counts {
		width = max(width, len(c.Bits))
	}
	for _, c := range s.Counts {
		bits := c.Bits
		if bits == "" {
			bits = "-"
		}
		n := 0
		if s.Shots > 0 {
			n = c.Shots * barWidth / s.Shots
		}
		pct := 0.0
		if s.Shots > 0 {
			pct = 100 * float64(c.Shots) / float64(s.Shots)
		}
		fmt.Fprintf(&b, "  %s  %6d  %5.1f%%  %s\n",
			paint(bitsColor, "%-*s", max(width, 1), bits),
			c.Shots, pct,
			paint(barColor, "%s", strings.Repeat("#", n)))
	}

	if s.Last != nil && len(s.Last.Entries) > 0 {
		fmt.Fprintf(&b, "%s\n", paint(headerColor, "last shot"))
		for _, e := range s.Last.Entries {
			tag := ""
			if e.Tag != "" {
				tag = " " + paint(tagColor, "%s", e.Tag)
			}
			fmt.Fprintf(&b, "  %-6s %d%s\n", e.Kind, e.Value, tag)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
