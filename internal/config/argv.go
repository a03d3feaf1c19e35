package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits a configured command line (clipboard_cmd) into argv form.
// Single and double quotes group words, backslash escapes the next rune, and
// a leading # marks the whole value as commented out.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv   []string
		arg    strings.Builder
		quote  rune
		escape bool
	)

	emit := func() {
		if arg.Len() > 0 {
			argv = append(argv, arg.String())
			arg.Reset()
		}
	}

	for _, r := range input {
		switch {
		case escape:
			arg.WriteRune(r)
			escape = false
		case r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				arg.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			emit()
		default:
			arg.WriteRune(r)
		}
	}

	if escape {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	emit()
	return argv, nil
}

// mustParseArgv is for built-in defaults, which must always parse.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
