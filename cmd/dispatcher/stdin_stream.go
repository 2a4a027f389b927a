package main

import (
	"bufio"
	"context"
	"os"
)

// lineStream adapts a bufio.Scanner over stdin to dispatch.InputStream,
// feeding one line at a time as a string payload.
type lineStream struct {
	scanner *bufio.Scanner
}

func readLineStream() *lineStream {
	return &lineStream{scanner: bufio.NewScanner(os.Stdin)}
}

func (s *lineStream) Next(ctx context.Context) (any, bool, error) {
	type scanResult struct {
		ok  bool
		err error
	}
	resultCh := make(chan scanResult, 1)
	go func() {
		ok := s.scanner.Scan()
		resultCh <- scanResult{ok: ok, err: s.scanner.Err()}
	}()

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, false, r.err
		}
		if !r.ok {
			return nil, false, nil
		}
		return s.scanner.Text(), true, nil
	}
}
