package resilience

import (
	"context"
	"io"
)

// cancelOnClose releases the per-attempt timeout once the caller is done reading.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
