package tblogger

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/paths"
)

// DefaultBackend is the backend used when Options.Backend is empty.
const DefaultBackend = "tensorboard"

// ErrBackendUnavailable is returned when the configured writer backend was
// never registered, usually because its package is not linked in.
var ErrBackendUnavailable = errors.New("optional dependency unavailable")

// backendPackages maps known backend names to the package that registers
// them, for error messages.
var backendPackages = map[string]string{
	DefaultBackend: "github.com/wandb/tblogger/internal/summarywriter",
}

//go:generate go run go.uber.org/mock/mockgen -destination=../tbloggertest/mock_writer.go -package=tbloggertest -mock_names=Writer=MockWriter github.com/wandb/tblogger/internal/tblogger Writer

// Writer is a visualization sink for scalars and value distributions.
//
// Tags use "/" to group related charts, like "train/loss".
type Writer interface {
	AddScalar(tag string, value float64, step int64) error
	AddHistogram(tag string, values []float64, step int64) error
	Flush() error
	Close() error
}

// OpenParams is passed to a Backend to open a Writer.
type OpenParams struct {
	Fs     afero.Fs
	LogDir paths.AbsolutePath
	Logger *observability.CoreLogger

	// MaxQueue is how many events may be pending before a flush.
	MaxQueue int

	// FlushInterval is how often pending events are flushed.
	FlushInterval time.Duration

	// MaxBins limits the number of histogram buckets, if positive.
	MaxBins int
}

// Backend opens a Writer for a run's log directory, which already exists.
type Backend func(params OpenParams) (Writer, error)

// Backends is a registry of writer backends by name.
type Backends struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewBackends returns an empty registry.
func NewBackends() *Backends {
	return &Backends{backends: make(map[string]Backend)}
}

var defaultBackends = NewBackends()

// DefaultBackends returns the registry that Register adds to.
func DefaultBackends() *Backends {
	return defaultBackends
}

// Register adds a backend to the default registry.
//
// Backend packages call this from init so that importing them is enough to
// make the backend available.
func Register(name string, backend Backend) {
	defaultBackends.Register(name, backend)
}

// Register adds or replaces a backend.
func (b *Backends) Register(name string, backend Backend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backends[name] = backend
}

// Names returns the registered backend names in sorted order.
func (b *Backends) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.backends))
}

// Lookup returns the named backend.
//
// The error matches ErrBackendUnavailable if there is no such backend.
func (b *Backends) Lookup(name string) (Backend, error) {
	b.mu.RLock()
	backend, ok := b.backends[name]
	b.mu.RUnlock()

	if ok {
		return backend, nil
	}

	err := wberrors.Bubblef(ErrBackendUnavailable, "tblogger: writer backend %q", name)
	if pkg, known := backendPackages[name]; known {
		return nil, err.Remedy("link it in with `import _ \"" + pkg + "\"`")
	}
	return nil, err.Remedy("registered backends: " + joinOrNone(b.Names()))
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
