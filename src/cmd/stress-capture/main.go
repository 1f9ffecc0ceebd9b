package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-pin/src/capture"
	"screen-pin/src/coords"
	"screen-pin/src/logutil"
	"screen-pin/src/runtimeinit"
)

type stressOptions struct {
	n         int
	backend   string
	size      int
	cancelPct int
	deadline  time.Duration
}

type stressReport struct {
	launched, ok, cancelled, failed int32
	openHandles                     int64
	elapsed                         time.Duration
}

func (r stressReport) String() string {
	return fmt.Sprintf("launched=%d ok=%d cancelled=%d err=%d open_handles=%d elapsed=%s",
		r.launched, r.ok, r.cancelled, r.failed, r.openHandles, r.elapsed)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, os.Stdout)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Stress concurrent captures and check for leaked handles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
				LoadOptions: runtimeinit.LoadOptionsFor("", opts.backend),
				Log:         logutil.StdLevel(logutil.LevelWarn),
			})
			if err != nil {
				return err
			}
			r := runWithOptions(*opts, rt.Capture)
			fmt.Fprintln(out, r)
			if r.openHandles != 0 {
				return fmt.Errorf("%d handles leaked", r.openHandles)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of concurrent captures")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "gdi|screenshot (default: platform default)")
	cmd.Flags().IntVar(&opts.size, "size", 256, "side of the captured square in pixels")
	cmd.Flags().IntVar(&opts.cancelPct, "cancel-pct", 30, "percentage of captures cancelled mid-flight, in steps of 10")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-capture timeout")

	return cmd
}

func runWithOptions(opts stressOptions, svc *capture.Service) stressReport {
	var wg sync.WaitGroup
	var r stressReport

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			atomic.AddInt32(&r.launched, 1)
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()

			var progress capture.ProgressFunc
			if i%10 < opts.cancelPct/10 {
				progress = func(s capture.Stage) {
					if s == capture.StageConverting {
						cancel()
					}
				}
			}
			region := coords.Rect{X: (i * 7) % 64, Y: (i * 13) % 64, Width: opts.size, Height: opts.size}
			res := svc.CaptureRegion(ctx, region, progress)
			switch {
			case res.Success:
				atomic.AddInt32(&r.ok, 1)
			case res.Cancelled():
				atomic.AddInt32(&r.cancelled, 1)
			default:
				atomic.AddInt32(&r.failed, 1)
			}
		}(i)
	}
	wg.Wait()
	r.elapsed = time.Since(start)
	r.openHandles = svc.Backend().OpenHandles()
	return r
}
