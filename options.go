package r

// initOptions holds configuration resolved by Init, following the
// teacher's functional-options shape (eventloop/options.go) rather than a
// config struct the caller populates directly.
type initOptions struct {
	logSpec       string
	logFormat     string
	appName       string
	maxFibers     int
	fiberStack    int
	disableTimeouts bool
	poller        string
}

// InitOption configures Init.
type InitOption interface {
	applyInit(*initOptions) error
}

type initOptionImpl struct {
	fn func(*initOptions) error
}

func (o *initOptionImpl) applyInit(opts *initOptions) error { return o.fn(opts) }

// WithLogSpec sets the initial log spec string ("destination:types:sources"),
// overridden by the LOG_FILTER environment variable unless a later
// (*Log).SetLog call passes force=true. See spec.md §4.4/§6.
func WithLogSpec(spec string) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		o.logSpec = spec
		return nil
	}}
}

// WithLogFormat sets the initial log template, overridden by LOG_FORMAT.
func WithLogFormat(format string) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		o.logFormat = format
		return nil
	}}
}

// WithAppName sets the %A template token's value.
func WithAppName(name string) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		o.appName = name
		return nil
	}}
}

// WithFiberLimits caps the number of concurrently live fibers, matching
// spec.md §4.5's setFiberLimits(maxFibers).
func WithFiberLimits(maxFibers int) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		if maxFibers <= 0 {
			return NewError(ErrBadArgs, "maxFibers must be positive, got %d", maxFibers)
		}
		o.maxFibers = maxFibers
		return nil
	}}
}

// WithFiberStackSize sets the default fiber stack size hint, clamped to
// [MinFiberStack, MaxFiberStack] per spec.md §6, the same clamp
// Runtime.SetFiberStack applies. Go fibers are goroutines with
// runtime-managed growable stacks, so this value isn't used to size an
// actual stack; it's retained for API fidelity.
func WithFiberStackSize(size int) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		if size < MinFiberStack {
			size = MinFiberStack
		}
		if size > MaxFiberStack {
			size = MaxFiberStack
		}
		o.fiberStack = size
		return nil
	}}
}

// WithTimeoutsDisabled mirrors spec.md §4.6's global setTimeouts(false),
// useful for single-stepping under a debugger.
func WithTimeoutsDisabled(disabled bool) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		o.disableTimeouts = disabled
		return nil
	}}
}

// WithPoller records the caller's preferred I/O multiplexing backend
// ("epoll", "kqueue", "select") for diagnostics. Each platform build
// compiles in exactly one backend (see poller_linux.go/poller_darwin.go/
// poller_other.go); if name doesn't match the one this binary was built
// with, Init logs a mismatch warning rather than silently ignoring the
// request.
func WithPoller(name string) InitOption {
	return &initOptionImpl{func(o *initOptions) error {
		o.poller = name
		return nil
	}}
}

func resolveInitOptions(opts []InitOption) (*initOptions, error) {
	cfg := &initOptions{
		logSpec:    "stderr:error,info:all",
		appName:    "r",
		maxFibers:  4096,
		fiberStack: MinFiberStack,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyInit(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
