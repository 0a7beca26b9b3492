package logging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tarmac-project/sqlmap"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const capabilityName = "logging"

// Level orders log severities. Entries below a Logger's Level are dropped.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	// LevelOff drops every entry.
	LevelOff
)

var levelNames = [...]string{"Trace", "Debug", "Info", "Warn", "Error", "Off"}

// String returns the host function name used for the level.
func (l Level) String() string {
	if l < LevelTrace || l > LevelOff {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ErrUnknownLevel is returned by ParseLevel for unrecognised names.
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel converts a case-insensitive level name. An empty name selects
// LevelInfo.
func ParseLevel(name string) (Level, error) {
	if name == "" {
		return LevelInfo, nil
	}
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// HostCall defines the waPC host function signature used to ship entries.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Logger emits leveled entries with optional key/value fields.
type Logger interface {
	Trace(msg string, kv ...any)
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Config controls how a HostLogger interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sqlmap.RuntimeConfig

	// HostCall overrides the waPC host function used for logging operations.
	HostCall HostCall

	// Level is the minimum severity forwarded to the host. The zero value
	// forwards everything.
	Level Level
}

// HostLogger is the Logger backed by the host logging capability.
type HostLogger struct {
	runtime  sqlmap.RuntimeConfig
	hostCall HostCall
	level    Level
}

var _ Logger = (*HostLogger)(nil)

// New creates a HostLogger with namespace defaults and optional host-call override.
func New(cfg Config) (*HostLogger, error) {
	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &HostLogger{
		runtime:  cfg.SDKConfig.WithDefaults(),
		hostCall: hostCall,
		level:    cfg.Level,
	}, nil
}

// Enabled reports whether entries at lvl reach the host.
func (l *HostLogger) Enabled(lvl Level) bool {
	return lvl >= l.level && lvl < LevelOff
}

func (l *HostLogger) Trace(msg string, kv ...any) { l.emit(LevelTrace, msg, kv) }
func (l *HostLogger) Debug(msg string, kv ...any) { l.emit(LevelDebug, msg, kv) }
func (l *HostLogger) Info(msg string, kv ...any)  { l.emit(LevelInfo, msg, kv) }
func (l *HostLogger) Warn(msg string, kv ...any)  { l.emit(LevelWarn, msg, kv) }
func (l *HostLogger) Error(msg string, kv ...any) { l.emit(LevelError, msg, kv) }

func (l *HostLogger) emit(lvl Level, msg string, kv []any) {
	if !l.Enabled(lvl) {
		return
	}
	_, _ = l.hostCall(l.runtime.Namespace, capabilityName, lvl.String(), []byte(Format(msg, kv...)))
}

// Format renders msg followed by kv as space separated key=value pairs.
// Values containing spaces, quotes or '=' are quoted. A trailing key without
// a value is paired with "!MISSING".
func Format(msg string, kv ...any) string {
	if len(kv) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		if i+1 >= len(kv) {
			b.WriteString("!MISSING")
			break
		}
		v := fmt.Sprint(kv[i+1])
		if v == "" || strings.ContainsAny(v, " \t\n\"=") {
			v = fmt.Sprintf("%q", v)
		}
		b.WriteString(v)
	}
	return b.String()
}

type discard struct{}

func (discard) Trace(string, ...any) {}
func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}

// Discard is a Logger that drops every entry.
var Discard Logger = discard{}
