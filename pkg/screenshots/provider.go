package screenshots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// Source names accepted by Open.
const (
	SourceDisplay   = "display"
	SourceSynthetic = "synthetic"
)

// Backend names reported in Capture.Backend.
const (
	backendGDI        = "gdi"
	backendScreenshot = "screenshot"
	backendSynthetic  = SourceSynthetic
)

// Source produces native-order (B,G,R,A) frames at physical resolution.
type Source interface {
	Grab(context.Context) (Capture, error)
}

// Capture is one raw frame straight from a source.
type Capture struct {
	Buffer     frame.Buffer
	Backend    string
	CapturedAt time.Time
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(context.Context) (Capture, error)

// Grab calls f.
func (f SourceFunc) Grab(ctx context.Context) (Capture, error) {
	return f(ctx)
}

// Open returns the source registered under name.
func Open(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SourceDisplay:
		return NewDisplaySource(), nil
	case SourceSynthetic:
		return Synthetic{}, nil
	default:
		return nil, fmt.Errorf("unknown capture source %q", name)
	}
}
