package feed

import (
	"context"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Opener opens the sensor stream. It must return promptly once ctx is done.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// OpenPipe returns an Opener for the controller's named pipe.
//
// Opening a FIFO for reading blocks until a writer appears. If ctx is
// cancelled first, the pending open is released by briefly opening the pipe
// as a writer, and ctx's error is returned.
func OpenPipe(path string) Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		type result struct {
			f   *os.File
			err error
		}
		done := make(chan result, 1)
		go func() {
			f, err := os.OpenFile(path, os.O_RDONLY, 0)
			done <- result{f, err}
		}()

		select {
		case r := <-done:
			return r.f, r.err
		case <-ctx.Done():
			if w, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0); err == nil {
				_ = w.Close()
			}
			go func() {
				if r := <-done; r.f != nil {
					_ = r.f.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}
