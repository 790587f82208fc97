package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// normalizeJSONC blanks out comments and trailing commas so encoding/json can
// decode the result. Byte offsets are preserved for error reporting.
func normalizeJSONC(content string) (string, error) {
	out := make([]byte, 0, len(content))
	pendingComma := -1
	inString, escaped := false, false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		if ch == '/' && i+1 < len(content) && content[i+1] == '/' {
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				out = append(out, ' ')
				i++
			}
			i--
			continue
		}

		if ch == '/' && i+1 < len(content) && content[i+1] == '*' {
			end := i + 2
			for end+1 < len(content) && !(content[end] == '*' && content[end+1] == '/') {
				end++
			}
			if end+1 >= len(content) {
				return "", fmt.Errorf("unterminated block comment in JSONC")
			}
			for ; i <= end+1; i++ {
				out = append(out, blankPreservingLines(content[i]))
			}
			i--
			continue
		}

		switch ch {
		case ' ', '\t', '\n', '\r':
		case ',':
			pendingComma = len(out)
		case '}', ']':
			if pendingComma >= 0 {
				out[pendingComma] = ' '
			}
			pendingComma = -1
		default:
			pendingComma = -1
		}
		if ch == '"' {
			inString = true
		}
		out = append(out, ch)
	}

	return string(out), nil
}

func blankPreservingLines(ch byte) byte {
	if ch == '\n' || ch == '\r' || ch == '\t' {
		return ch
	}
	return ' '
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
