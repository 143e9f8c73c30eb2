package server

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// offsetForPosition converts an LSP position (0-based line, UTF-16 column)
// into a byte offset. Out-of-range positions clamp to the nearest valid
// offset.
func offsetForPosition(text string, position protocol.Position) int {
	lines := strings.SplitAfter(text, "\n")
	offset := 0
	for i := 0; i < int(position.Line) && i < len(lines); i++ {
		offset += len(lines[i])
	}
	if int(position.Line) >= len(lines) {
		return len(text)
	}

	line := strings.TrimSuffix(lines[position.Line], "\n")
	units := 0
	for _, r := range line {
		if units >= int(position.Character) {
			break
		}
		units += utf16RuneLen(r)
		offset += len(string(r))
	}
	if offset > len(text) {
		offset = len(text)
	}
	return offset
}

// positionForOffset converts a byte offset into an LSP position. Offsets
// beyond the buffer clamp to the end of the last line.
func positionForOffset(text string, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	units := 0
	for _, r := range text[lineStart:offset] {
		units += utf16RuneLen(r)
	}
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(units),
	}
}

func utf16RuneLen(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}
