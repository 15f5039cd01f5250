package engine

import "io"

// SliceStream returns a Stream over pre-built segments. It is used by
// backends that produce all audio in one shot and by tests.
func SliceStream(segs []Segment) Stream {
	return &sliceStream{segs: segs}
}

type sliceStream struct {
	segs []Segment
	pos  int
}

func (s *sliceStream) Next() (Segment, error) {
	if s.pos >= len(s.segs) {
		return Segment{}, io.EOF
	}
	seg := s.segs[s.pos]
	s.pos++
	return seg, nil
}

func (s *sliceStream) Close() error { return nil }
