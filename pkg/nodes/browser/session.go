package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// session owns one browser process and one page context, shared sequentially
// by all items of a batch.
type session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// newSession starts the browser. The session lives until close, independent
// of any per-item context.
func newSession(headless bool) (*session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)

	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Launch the process eagerly so startup failures surface here rather
	// than inside the first page operation.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()

		return nil, err
	}

	return &session{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (s *session) close() {
	s.cancel()
	s.allocCancel()
}
