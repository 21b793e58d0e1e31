package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const slowDownDelay = 1 * time.Second

type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

// A consumer is used for composition.
//
// Fetching records from kafka broker and closing underlying [kgo.Client].
type consumer struct {
	opPrefix      string
	cl            ConsumerClient
	slowDownTimer *time.Timer
}

func newConsumer(opPrefix string, cl ConsumerClient) consumer {
	t := time.NewTimer(0)
	t.Stop()
	return consumer{
		opPrefix:      opPrefix,
		cl:            cl,
		slowDownTimer: t,
	}
}

// run polls until ctx is done. Failures are reported to onError
// and slow down the next poll.
func (c consumer) run(
	ctx context.Context, parent consumerParent, onError func(error),
) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx, parent)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error("failed to consume", "err", err)
				onError(err)
				c.slowDown(ctx)
			}
		}
	}
}

// consume hands every fetched record to the parent even when some
// partitions failed: the client has moved past those records and a
// groupless reader never gets them again. Partition errors are returned
// after the records are processed.
func (c consumer) consume(ctx context.Context, parent consumerParent) error {
	const op = "consume"

	fetches := c.cl.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return opErr(kgo.ErrClientClosed, c.opPrefix, op)
	}

	fetchErr := c.handleFetchesErrs(fetches)

	var processErr error
	if fetches.NumRecords() != 0 {
		processErr = parent.processFetches(ctx, fetches)
	}

	if err := errors.Join(fetchErr, processErr); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c consumer) slowDown(ctx context.Context) {
	c.slowDownTimer.Reset(slowDownDelay)
	select {
	case <-ctx.Done():
		c.slowDownTimer.Stop()
	case <-c.slowDownTimer.C:
	}
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowDownTimer.Stop()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}
