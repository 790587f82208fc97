package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseCommand splits a shell-like command line into argv. Single and double
// quotes group words; outside single quotes a backslash escapes the next rune. No expansion happens.
func ParseCommand(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		if escaped {
			word.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			word.WriteRune(r)
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escaped:
		return nil, fmt.Errorf("dangling escape in command %q", input)
	case quote != 0:
		return nil, fmt.Errorf("unterminated quote in command %q", input)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}

func mustParseCommand(input string) []string {
	argv, err := ParseCommand(input)
	if err != nil {
		panic(err)
	}
	return argv
}
