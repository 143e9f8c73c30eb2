// Package textindex maps between absolute character offsets and 1-based line
// numbers in a document. All functions are pure; callers that need speed on a
// hot path are expected to cache results themselves.
package textindex

// LineNumberForPosition returns the 1-based line number containing the given
// absolute offset. Lines are delimited by '\n'; a line's range runs up to and
// including its terminator. An offset exactly at the end of a buffer that does
// not end in a terminator belongs to the last, unterminated line rather than
// to a line one past it.
func LineNumberForPosition(text string, position int) int {
	if position < 0 {
		position = 0
	}
	if position > len(text) {
		position = len(text)
	}

	line := 1
	for i := 0; i < position; i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}

// PositionForLineNumber returns the start offset of the requested 1-based
// line. Requesting a line beyond the last line clamps to the buffer length.
func PositionForLineNumber(text string, lineNumber int) int {
	if lineNumber <= 1 {
		return 0
	}

	current := 1
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			current++
			if current == lineNumber {
				return i + 1
			}
		}
	}
	return len(text)
}

// LineCount returns the number of lines in text. The empty string counts as a
// single line, and a trailing terminator opens a final empty line.
func LineCount(text string) int {
	count := 1
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			count++
		}
	}
	return count
}

// lineLength returns the length of the 1-based line excluding its terminator.
func lineLength(text string, lineNumber int) int {
	start := PositionForLineNumber(text, lineNumber)
	length := 0
	for i := start; i < len(text) && text[i] != '\n'; i++ {
		length++
	}
	return length
}

// OffsetForLineColumn resolves a goto target. Line and column are 1-based;
// the column is clamped to the target line's length and the result is clamped
// to the buffer length.
func OffsetForLineColumn(text string, lineNumber, column int) int {
	start := PositionForLineNumber(text, lineNumber)
	if column < 1 {
		column = 1
	}
	if max := lineLength(text, lineNumber) + 1; column > max {
		column = max
	}

	offset := start + column - 1
	if offset > len(text) {
		offset = len(text)
	}
	return offset
}
