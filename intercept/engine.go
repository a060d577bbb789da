package intercept

import (
	"sync"

	"github.com/containerd/log"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/detentropy/detentropy/mtrand"
)

// DefaultSeed seeds the process-wide default engine. It is a fixed constant
// so two runs of the same program agree without any configuration surface.
const DefaultSeed uint64 = 12345

// maxTrackedHandles is the greatest number of entropy-device opens that may
// be live at once.
const maxTrackedHandles = 8

// Engine intercepts a process's entropy operations. Direct acquisition calls
// (Getrandom, Getentropy) are served from one shared deterministic stream.
// Opens of the canonical random device paths are tracked in a bounded table,
// and later reads on those descriptors are served from a per-descriptor
// stream seeded from the descriptor number. Everything else falls through to
// the host operations with arguments and results untouched.
//
// All methods are safe for concurrent use.
type Engine struct {
	seed        uint64
	paths       mapset.Set[string] // read-only after New
	logger      *log.Entry
	passthrough bool
	injected    HostOps

	resolveOnce sync.Once
	ops         HostOps
	opsErr      error

	mu      sync.Mutex
	direct  *mtrand.Source
	handles map[int]*mtrand.Source
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed sets the engine seed. The default is DefaultSeed.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithHostOps injects pre-resolved host operations, bypassing
// DefaultHostOps. Tests use it to run the engine against a fake host.
func WithHostOps(ops HostOps) Option {
	return func(e *Engine) { e.injected = ops }
}

// WithLogger enables diagnostic logging of every interception decision.
// Without it the hot path never logs.
func WithLogger(logger *log.Entry) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEntropyPaths adds paths to the canonical device set, for hosts with
// extra entropy devices such as /dev/hwrng.
func WithEntropyPaths(paths ...string) Option {
	return func(e *Engine) { e.paths.Append(paths...) }
}

// WithPassthrough forwards every call to the host unchanged, substituting
// and tracking nothing. Harnesses use it to A/B an intercepted run against a
// native one through the same code path.
func WithPassthrough() Option {
	return func(e *Engine) { e.passthrough = true }
}

// New returns an Engine with its direct stream seeded and its handle table
// empty. Host operations are resolved lazily, once, on the first call that
// reaches the engine; a resolution failure is sticky and is returned by
// every call that needs the originals.
func New(opts ...Option) *Engine {
	e := &Engine{
		seed:    DefaultSeed,
		paths:   mapset.NewThreadUnsafeSet("/dev/random", "/dev/urandom"),
		handles: make(map[int]*mtrand.Source, maxTrackedHandles),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.direct = mtrand.New(e.seed)
	return e
}

func (e *Engine) host() (HostOps, error) {
	e.resolveOnce.Do(func() {
		if e.injected != nil {
			e.ops = e.injected
			return
		}
		ops, err := DefaultHostOps()
		if err != nil {
			e.opsErr = errors.Wrap(err, "resolving host entropy operations")
			return
		}
		e.ops = ops
	})
	return e.ops, e.opsErr
}

// Getrandom fills p deterministically and reports len(p) bytes written. It
// never blocks, never returns short, and never consults flags; callers get
// the same byte stream whatever quality they asked for.
func (e *Engine) Getrandom(p []byte, flags int) (int, error) {
	if e.passthrough {
		ops, err := e.host()
		if err != nil {
			return 0, err
		}
		e.trace("getrandom", log.Fields{"len": len(p), "flags": flags})
		return ops.Getrandom(p, flags)
	}
	e.mu.Lock()
	e.direct.Fill(p)
	e.mu.Unlock()
	e.debug("getrandom", log.Fields{"len": len(p), "flags": flags})
	return len(p), nil
}

// Getentropy behaves like Getrandom without a flags argument, continuing the
// same shared stream. Unlike the host call it accepts requests over 256
// bytes: that limit exists to bound blocking, and this path cannot block.
func (e *Engine) Getentropy(p []byte) error {
	if e.passthrough {
		ops, err := e.host()
		if err != nil {
			return err
		}
		e.trace("getentropy", log.Fields{"len": len(p)})
		return ops.Getentropy(p)
	}
	e.mu.Lock()
	e.direct.Fill(p)
	e.mu.Unlock()
	e.debug("getentropy", log.Fields{"len": len(p)})
	return nil
}

// Open forwards path to the host with flags and perm untouched. When path
// equals one of the entropy device paths, the resulting descriptor is
// additionally recorded in the handle table with a fresh stream seeded from
// the descriptor number, so the descriptor stays a real, closable file while
// its reads become deterministic. A matched open against a full table fails
// with EMFILE before the host is touched, so no descriptor leaks.
func (e *Engine) Open(path string, flag int, perm uint32) (int, error) {
	ops, err := e.host()
	if err != nil {
		return -1, err
	}
	if e.passthrough || !e.paths.Contains(path) {
		e.trace("open", log.Fields{"path": path, "flags": flag})
		return ops.Open(path, flag, perm)
	}
	// The lock spans the capacity check, the host open, and the insert so
	// concurrent matched opens cannot overshoot the table.
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) >= maxTrackedHandles {
		return -1, unix.EMFILE
	}
	fd, err := ops.Open(path, flag, perm)
	if err != nil {
		return fd, err
	}
	e.handles[fd] = mtrand.New(e.seed + uint64(fd))
	e.debug("open", log.Fields{"path": path, "fd": fd})
	return fd, nil
}

// Read serves p from the tracked stream when fd is in the handle table,
// reporting exactly len(p) bytes: no short reads, no blocking, no EOF.
// Untracked descriptors are forwarded with the engine lock released, since a
// real read may block indefinitely.
func (e *Engine) Read(fd int, p []byte) (int, error) {
	ops, err := e.host()
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	if src, ok := e.handles[fd]; ok {
		src.Fill(p)
		e.mu.Unlock()
		e.debug("read", log.Fields{"fd": fd, "len": len(p)})
		return len(p), nil
	}
	e.mu.Unlock()
	e.trace("read", log.Fields{"fd": fd, "len": len(p)})
	return ops.Read(fd, p)
}

// Close drops fd from the handle table if present and always forwards to the
// host, keeping the OS descriptor table clean whether or not fd was tracked.
// Closing an untracked descriptor is not an error at this layer.
func (e *Engine) Close(fd int) error {
	ops, err := e.host()
	if err != nil {
		return err
	}
	e.mu.Lock()
	_, tracked := e.handles[fd]
	delete(e.handles, fd)
	e.mu.Unlock()
	if tracked {
		e.debug("close", log.Fields{"fd": fd})
	} else {
		e.trace("close", log.Fields{"fd": fd})
	}
	return ops.Close(fd)
}

// Tracked reports how many descriptors the handle table currently holds.
func (e *Engine) Tracked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

func (e *Engine) debug(op string, fields log.Fields) {
	if e.logger == nil {
		return
	}
	e.logger.WithField("op", op).WithFields(fields).Debug("substituting deterministic bytes")
}

func (e *Engine) trace(op string, fields log.Fields) {
	if e.logger == nil {
		return
	}
	e.logger.WithField("op", op).WithFields(fields).Trace("forwarding to host")
}
