package api

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is a log severity. Values are ordered from least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
	LevelAlert
	LevelEmergency
)

// DefaultLevel is used by filters that do not set a level.
const DefaultLevel = LevelInfo

var levelNames = [...]string{
	LevelDebug:     "debug",
	LevelInfo:      "info",
	LevelNotice:    "notice",
	LevelWarning:   "warning",
	LevelError:     "error",
	LevelCritical:  "critical",
	LevelAlert:     "alert",
	LevelEmergency: "emergency",
}

// Levels returns every level from most to least severe.
func Levels() []Level {
	return []Level{
		LevelEmergency, LevelAlert, LevelCritical, LevelError,
		LevelWarning, LevelNotice, LevelInfo, LevelDebug,
	}
}

// LevelNames returns the accepted level names, most severe first.
func LevelNames() []string {
	levels := Levels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return names
}

// ParseLevel returns the level with the given name. Matching is exact and case-sensitive.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	return DefaultLevel, fmt.Errorf("unknown level %q, allowed %s", s, strings.Join(LevelNames(), ", "))
}

// Valid reports whether l is one of the eight defined levels.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelEmergency
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Custom slog levels for severities slog does not define.
const (
	SlogLevelNotice    = slog.LevelInfo + 2
	SlogLevelCritical  = slog.LevelError + 4
	SlogLevelAlert     = slog.LevelError + 8
	SlogLevelEmergency = slog.LevelError + 12
)

// SlogLevel maps l onto a slog level.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelNotice:
		return SlogLevelNotice
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCritical:
		return SlogLevelCritical
	case LevelAlert:
		return SlogLevelAlert
	case LevelEmergency:
		return SlogLevelEmergency
	default:
		return slog.LevelInfo
	}
}

// ReplaceLevelAttr renders the custom slog levels by name. Use it as
// slog.HandlerOptions.ReplaceAttr.
func ReplaceLevelAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	lvl, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch lvl {
	case SlogLevelNotice:
		a.Value = slog.StringValue("NOTICE")
	case SlogLevelCritical:
		a.Value = slog.StringValue("CRITICAL")
	case SlogLevelAlert:
		a.Value = slog.StringValue("ALERT")
	case SlogLevelEmergency:
		a.Value = slog.StringValue("EMERGENCY")
	}
	return a
}
