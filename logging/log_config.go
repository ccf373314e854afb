package logging

import (
	"regexp"
	"strings"
)

// LoggerPatternConfig is an instance of a level specification for a given logger.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

const (
	// e.g. "task".
	validLoggerSectionName = `[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*`
	// e.g. "task" or "*".
	validLoggerSectionNameWithWildcard = `(` + validLoggerSectionName + `|\*)`
	// e.g. "daqmx.*.voltage".
	validLoggerSectionsWithWildcard = validLoggerSectionNameWithWildcard + `(\.` + validLoggerSectionNameWithWildcard + `)*`
	// Restricts above regex to be the entire pattern.
	validLoggerName = `^` + validLoggerSectionsWithWildcard + `$`
)

var (
	loggerPatternRegexp = regexp.MustCompile(validLoggerName)
	invalidSectionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

func validatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

// ValidatePattern reports whether the pattern can be used to select loggers.
func ValidatePattern(pattern string) bool {
	return validatePattern(pattern)
}

// SectionName turns an arbitrary string, such as a DAQmx task name, into something that is safe to
// use as one dot-separated section of a logger name.
func SectionName(name string) string {
	cleaned := strings.Trim(invalidSectionChars.ReplaceAllString(name, "_"), "_-")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}

func buildRegexFromPattern(pattern string) string {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return matcher.String()
}
