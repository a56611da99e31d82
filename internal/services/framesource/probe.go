package framesource

import (
	"context"
	"fmt"
	"time"

	"github.com/aler9/gortsplib"
	"github.com/aler9/gortsplib/pkg/url"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/errs"
)

// Prober checks that an RTSP server answers OPTIONS without pulling video.
type Prober struct {
	timeout time.Duration
}

func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Prober{timeout: timeout}
}

func (p *Prober) Probe(ctx context.Context, address string) error {
	const op = "service.framesource.Probe"

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- options(address)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, errs.ErrCameraUnavailable, err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w: %w", op, errs.ErrCameraUnavailable, ctx.Err())
	}
}

func options(address string) error {
	u, err := url.Parse(address)
	if err != nil {
		return err
	}

	conn := gortsplib.Client{}

	err = conn.Start(u.Scheme, u.Host)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Options(u)

	return err
}
