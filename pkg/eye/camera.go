package eye

import (
	"errors"
	"time"

	"github.com/giongto35/eye/pkg/logger"
	"github.com/giongto35/eye/pkg/monitoring"
	"github.com/rs/xid"
)

// Camera owns one native capture session.
// It is safe for concurrent use, native calls are serialized.
type Camera struct {
	id       xid.ID
	lib      Library
	handle   Handle
	reserved chan struct{} // limits concurrent use of the handle
	state    error
	cause    error

	log     *logger.Logger
	metrics *monitoring.CaptureMetrics
}

type Option func(*Camera)

func WithLogger(log *logger.Logger) Option { return func(c *Camera) { c.log = log } }

func WithMetrics(m *monitoring.CaptureMetrics) Option {
	return func(c *Camera) { c.metrics = m }
}

// New opens a new capture session.
// On failure no handle is retained and the native message is returned in a *CallError.
func New(lib Library, opts ...Option) (*Camera, error) {
	c := &Camera{
		id:       xid.New(),
		lib:      lib,
		reserved: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	c.log = c.log.Extend(c.log.With().Str("session", c.id.String()))

	h, err := create(lib)
	if err != nil {
		c.nativeError(err)
		c.log.Error().Err(err).Msg("couldn't open camera")
		return nil, err
	}
	c.handle = h
	c.metrics.SessionOpened()
	c.log.Debug().Msgf("camera session %#x", uintptr(h))
	return c, nil
}

func (c *Camera) ID() string { return c.id.String() }

// Descriptor returns the current stream format.
// It is asked from the native side every time since the format may change.
func (c *Camera) Descriptor() (Descriptor, error) {
	if err := c.acquire("descriptor"); err != nil {
		return Descriptor{}, err
	}
	defer c.release()

	d, err := streamDescriptor(c.lib, c.handle)
	if err != nil {
		c.fail(err)
		return Descriptor{}, err
	}
	c.log.Debug().Msgf("%v: %v", SymStreamDescriptor, d)
	return d, nil
}

// Frames returns a new pull stream over the session frames.
func (c *Camera) Frames() *Stream { return &Stream{cam: c} }

// Close tears down the session. It is safe to call Close more than once.
func (c *Camera) Close() error {
	c.reserved <- struct{}{}
	defer c.release()

	if c.state != nil {
		return nil
	}
	c.state = ErrSessionClosed
	if d, ok := c.lib.(Destroyer); ok && supports(c.lib, SymDestroy) {
		d.Destroy(c.handle)
	}
	c.handle = 0
	c.metrics.SessionClosed()
	c.log.Debug().Msg("camera closed")
	return nil
}

func (c *Camera) pull() ([]byte, error) {
	if err := c.acquire("next frame"); err != nil {
		return nil, err
	}
	defer c.release()

	start := time.Now()
	data, err := nextFrame(c.lib, c.handle)
	if err != nil {
		c.fail(err)
		return nil, err
	}
	took := time.Since(start)
	c.metrics.Frame(len(data), took)
	c.log.Debug().Msgf("%v: %v bytes in %v", SymNextFrame, len(data), took)
	return data, nil
}

// acquire reserves the session for one native call.
func (c *Camera) acquire(op string) error {
	c.reserved <- struct{}{}
	if c.state != nil {
		c.release()
		return &LifecycleError{Op: op, State: c.state, Cause: c.cause}
	}
	return nil
}

func (c *Camera) release() { <-c.reserved }

// fail invalidates the session after a failed native call.
// Decode errors leave the session as it is.
func (c *Camera) fail(err error) {
	var ce *CallError
	if !errors.As(err, &ce) {
		c.log.Warn().Err(err).Msg("bad native data")
		return
	}
	c.nativeError(err)
	c.state, c.cause = ErrSessionFailed, err
	c.handle = 0
	c.metrics.SessionClosed()
	c.log.Error().Err(err).Msg("camera session failed")
}

func (c *Camera) nativeError(err error) {
	var ce *CallError
	if errors.As(err, &ce) {
		c.metrics.NativeError(ce.Call)
	}
}
