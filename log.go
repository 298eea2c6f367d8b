package r

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// logEvent is the logiface.Event implementation backing Log. It collects
// the message plus an ordered set of key/value fields (source, plus
// whatever the caller attaches) for the Writer to render through the
// format template.
type logEvent struct {
	logiface.UnimplementedEvent
	lvl    logiface.Level
	msg    string
	source string
	raw    bool
	fields []logField
}

type logField struct {
	key string
	val any
}

func (e *logEvent) Level() logiface.Level { return e.lvl }

func (e *logEvent) AddField(key string, val any) {
	if key == "source" {
		if s, ok := val.(string); ok {
			e.source = s
			return
		}
	}
	if key == "raw" {
		if b, ok := val.(bool); ok {
			e.raw = b
			return
		}
	}
	e.fields = append(e.fields, logField{key, val})
}

func (e *logEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *logEvent) AddError(err error) bool {
	if err == nil {
		return false
	}
	e.fields = append(e.fields, logField{"error", err.Error()})
	return true
}

func (e *logEvent) reset() {
	e.lvl = logiface.LevelDisabled
	e.msg = ""
	e.source = ""
	e.raw = false
	e.fields = e.fields[:0]
}

var logEventPool = sync.Pool{New: func() any { return new(logEvent) }}

func newLogEvent(lvl logiface.Level) *logEvent {
	e := logEventPool.Get().(*logEvent)
	e.reset()
	e.lvl = lvl
	return e
}

func releaseLogEvent(e *logEvent) { logEventPool.Put(e) }

// filterSet implements the comma-separated, '!'-negatable, "all"-aware
// matching rules of the log spec grammar (spec.md §4.4/§6): a tag
// matches the set iff it is not explicitly excluded, and either "all"
// or the tag itself was included.
type filterSet struct {
	include map[string]bool
	exclude map[string]bool
}

func parseFilterSet(s string) filterSet {
	fs := filterSet{include: map[string]bool{}, exclude: map[string]bool{}}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "!") {
			fs.exclude[strings.TrimPrefix(tok, "!")] = true
		} else {
			fs.include[tok] = true
		}
	}
	return fs
}

func (fs filterSet) matches(tag string) bool {
	if fs.exclude[tag] {
		return false
	}
	return fs.include["all"] || fs.include[tag]
}

// LogSpec is a parsed "destination:types:sources" log configuration
// string, as described in spec.md §4.4 and §6.
type LogSpec struct {
	Destination string
	Types       filterSet
	Sources     filterSet
	raw         string
}

// ParseLogSpec parses a log spec of the form
// "destination:typeFilter:sourceFilter". A missing segment defaults to
// "all".
func ParseLogSpec(spec string) LogSpec {
	parts := strings.SplitN(spec, ":", 3)
	for len(parts) < 3 {
		parts = append(parts, "all")
	}
	return LogSpec{
		Destination: parts[0],
		Types:       parseFilterSet(parts[1]),
		Sources:     parseFilterSet(parts[2]),
		raw:         spec,
	}
}

// Log is the filtered, template-rendering log pipeline described in
// spec.md §4.4. It wraps a *logiface.Logger backed by a destination- and
// rotation-aware Writer.
type Log struct {
	mu       sync.Mutex
	spec     LogSpec
	format   string
	appName  string
	host     string
	maxSize  int64
	maxFiles int
	handler  atomic.Pointer[LogHandler]

	writer *logWriter
	logger *logiface.Logger[*logEvent]
}

// LogHandler, if installed via Log.SetHandler, is invoked for every
// message that passes the filter, in place of the default
// template-and-write behavior.
type LogHandler func(typ, source, message string)

const defaultLogFormat = "%D %H[%P] %S: %T: %M"

// InitLog constructs a Log from a log spec string (see ParseLogSpec).
// appName is used for the "%A" template token.
func InitLog(spec string, appName string) (*Log, error) {
	l := &Log{
		format:   defaultLogFormat,
		appName:  appName,
		maxSize:  2 * 1024 * 1024,
		maxFiles: 5,
	}
	if host, err := os.Hostname(); err == nil {
		l.host = host
	}
	if err := l.SetLog(spec, true); err != nil {
		return nil, err
	}
	return l, nil
}

// SetLog (re)configures the log pipeline. If force is false and an
// environment override (LOG_FILTER) is present, the override wins;
// InitLog always passes force=true for its initial, explicit spec, but
// callers reconfiguring later may pass force=false to respect an
// operator's environment override, per spec.md §6.
func (l *Log) SetLog(spec string, force bool) error {
	if !force {
		if env := os.Getenv("LOG_FILTER"); env != "" {
			spec = env
		}
	}
	if env := os.Getenv("LOG_FORMAT"); env != "" {
		l.mu.Lock()
		l.format = env
		l.mu.Unlock()
	}

	parsed := ParseLogSpec(spec)

	w, err := newLogWriter(parsed.Destination, l.maxSize, l.maxFiles)
	if err != nil {
		return NewError(ErrCantOpen, "log destination %q: %v", parsed.Destination, err)
	}

	w.log = l

	l.mu.Lock()
	old := l.writer
	l.spec = parsed
	l.writer = w
	l.logger = logiface.New[*logEvent](
		logiface.WithLevel[*logEvent](logiface.LevelTrace),
		logiface.WithEventFactory[*logEvent](logiface.NewEventFactoryFunc(newLogEvent)),
		logiface.WithEventReleaser[*logEvent](logiface.NewEventReleaserFunc(releaseLogEvent)),
		logiface.WithWriter[*logEvent](w),
	)
	l.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// SetHandler installs a redirect handler; a nil handler restores the
// default template-rendering behavior.
func (l *Log) SetHandler(h LogHandler) {
	if h == nil {
		l.handler.Store(nil)
		return
	}
	l.handler.Store(&h)
}

// EmitLog reports whether a message of the given type and source would
// currently be emitted, so callers can skip building an expensive
// message when it would be discarded.
func (l *Log) EmitLog(typ, source string) bool {
	l.mu.Lock()
	spec := l.spec
	l.mu.Unlock()
	if spec.Destination == "none" || spec.Destination == "" {
		return false
	}
	return spec.Types.matches(typ) && spec.Sources.matches(source)
}

func logLevelFor(typ string) logiface.Level {
	switch typ {
	case "error":
		return logiface.LevelError
	case "info":
		return logiface.LevelInformational
	case "trace":
		return logiface.LevelTrace
	case "debug":
		return logiface.LevelDebug
	case "raw":
		return logiface.LevelInformational
	default:
		return logiface.LevelInformational
	}
}

// Log renders fmt and args and emits the result as type/source, if the
// current filter allows it.
func (l *Log) Log(typ, source, format string, args ...any) {
	if !l.EmitLog(typ, source) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	if h := l.handler.Load(); h != nil {
		(*h)(typ, source, msg)
		return
	}

	l.mu.Lock()
	logger := l.logger
	l.mu.Unlock()
	if logger == nil {
		return
	}

	b := logger.Build(logLevelFor(typ))
	if b == nil {
		return
	}
	b = b.Str("source", source)
	if typ == "raw" {
		b = b.Bool("raw", true)
	}
	b.Log(msg)
}

// Error, Info, Trace, Debug are convenience wrappers for Log with a fixed
// type, mirroring spec.md §4.4's rError/rInfo/rTrace/rDebug family.
func (l *Log) Error(source, format string, args ...any) { l.Log("error", source, format, args...) }
func (l *Log) Info(source, format string, args ...any)  { l.Log("info", source, format, args...) }
func (l *Log) Trace(source, format string, args ...any) { l.Log("trace", source, format, args...) }
func (l *Log) Debug(source, format string, args ...any) { l.Log("debug", source, format, args...) }
func (l *Log) Raw(source, format string, args ...any)   { l.Log("raw", source, format, args...) }

// render expands the format template against a fired event.
func (l *Log) render(e *logEvent) string {
	if e.raw {
		return e.msg
	}
	l.mu.Lock()
	format, appName, host := l.format, l.appName, l.host
	l.mu.Unlock()

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'A':
			b.WriteString(appName)
		case 'D':
			b.WriteString(time.Now().Format("2006-01-02T15:04:05.000Z07:00"))
		case 'H':
			b.WriteString(host)
		case 'P':
			b.WriteString(strconv.Itoa(os.Getpid()))
		case 'S':
			b.WriteString(e.source)
		case 'T':
			b.WriteString(typeNameForLevel(e.lvl))
		case 'M':
			b.WriteString(e.msg)
			for _, f := range e.fields {
				fmt.Fprintf(&b, " %s=%v", f.key, f.val)
			}
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func typeNameForLevel(lvl logiface.Level) string {
	switch lvl {
	case logiface.LevelError, logiface.LevelCritical, logiface.LevelAlert, logiface.LevelEmergency:
		return "error"
	case logiface.LevelInformational, logiface.LevelNotice, logiface.LevelWarning:
		return "info"
	case logiface.LevelDebug:
		return "debug"
	case logiface.LevelTrace:
		return "trace"
	default:
		return "info"
	}
}

// Close releases the underlying destination.
func (l *Log) Close() error {
	l.mu.Lock()
	w := l.writer
	l.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

var (
	defaultLogOnce sync.Once
	defaultLogPtr  atomic.Pointer[Log]
)

func defaultLogger() *Log {
	defaultLogOnce.Do(func() {
		spec := os.Getenv("LOG_FILTER")
		if spec == "" {
			spec = "stderr:error,info:all"
		}
		l, err := InitLog(spec, "r")
		if err != nil {
			l, _ = InitLog("stderr:error,info:all", "r")
		}
		defaultLogPtr.Store(l)
	})
	return defaultLogPtr.Load()
}

// SetDefaultLog replaces the process-wide default logger used by the
// package-level rError/rInfo/rTrace/rDebug helpers.
func SetDefaultLog(l *Log) {
	defaultLogOnce.Do(func() {})
	defaultLogPtr.Store(l)
}

// Error, Info, Trace, Debug log against the process-wide default logger,
// matching spec.md §6's rError/rInfo/rTrace/rDebug convenience surface.
func Error(source, format string, args ...any) { defaultLogger().Error(source, format, args...) }
func Info(source, format string, args ...any)  { defaultLogger().Info(source, format, args...) }
func Trace(source, format string, args ...any) { defaultLogger().Trace(source, format, args...) }
func Debug(source, format string, args ...any) { defaultLogger().Debug(source, format, args...) }
