package dispatch

import "context"

// InputStream is any lazy sequence whose iteration produces opaque
// payloads; exhaustion is not an error. It is the caller-supplied
// external collaborator left otherwise unconstrained by this package.
type InputStream interface {
	// Next returns the next payload, or ok == false once the stream is
	// exhausted. A non-nil error means the stream itself raised; the
	// feeder logs it and exits gracefully rather than propagating it to
	// the caller.
	Next(ctx context.Context) (payload any, ok bool, err error)
}

// SliceStream adapts an in-memory slice to InputStream, the way the
// package's own tests and examples feed a fixed batch of work.
type SliceStream struct {
	items []any
	pos   int
}

// NewSliceStream wraps items as an InputStream.
func NewSliceStream(items []any) *SliceStream {
	return &SliceStream{items: items}
}

func (s *SliceStream) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}
