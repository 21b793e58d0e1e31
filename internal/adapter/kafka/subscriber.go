package kafka

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/niksmo/prime-house/pkg/schema"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.PropertiesSubscriber = (*PropertiesSubscriber)(nil)

// A collection is the subscriber side copy of the group table.
//
// Until every partition is read up to the end offset observed at
// subscription start the collection is not ready and is not published.
type collection struct {
	docs    map[string]domain.Property
	pending map[int32]int64
}

// newCollection takes the partitions that have records to catch up with:
// partition to end offset.
func newCollection(pending map[int32]int64) *collection {
	return &collection{
		docs:    make(map[string]domain.Property),
		pending: pending,
	}
}

// apply sets or removes (doc is nil) the document under id.
func (c *collection) apply(
	partition int32, offset int64, id string, doc *domain.Property,
) {
	if doc == nil {
		delete(c.docs, id)
	} else {
		c.docs[id] = *doc
	}
	c.seen(partition, offset)
}

// seen marks the record at offset as read.
func (c *collection) seen(partition int32, offset int64) {
	end, ok := c.pending[partition]
	if ok && offset+1 >= end {
		delete(c.pending, partition)
	}
}

func (c *collection) ready() bool {
	return len(c.pending) == 0
}

// snapshot returns the whole collection ordered by id.
func (c *collection) snapshot() []domain.Property {
	docs := make([]domain.Property, 0, len(c.docs))
	docs = slices.AppendSeq(docs, maps.Values(c.docs))
	slices.SortFunc(docs, func(a, b domain.Property) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return docs
}

// A PropertiesSubscriber follows the properties group table and publishes
// the full collection on every change.
type PropertiesSubscriber struct {
	opPrefix string
	consumer consumer
	offsets  OffsetsLister
	topic    string
	decoder  Decoder
}

func NewPropertiesSubscriber(opts ...ConsumerOpt) (PropertiesSubscriber, error) {
	const op = "NewPropertiesSubscriber"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return PropertiesSubscriber{}, opErr(err, op)
	}

	opPrefix := "PropertiesSubscriber"
	return PropertiesSubscriber{
		opPrefix: opPrefix,
		consumer: newConsumer(opPrefix, options.cl),
		offsets:  options.offsets,
		topic:    options.topic,
		decoder:  options.decoder,
	}, nil
}

func (s PropertiesSubscriber) Close() {
	s.consumer.close()
}

// Subscribe blocks until ctx is done.
func (s PropertiesSubscriber) Subscribe(
	ctx context.Context,
	onChange func([]domain.Property),
	onError func(error),
) {
	const op = "Subscribe"
	log := slog.With("op", makeOp(s.opPrefix, op), "topic", s.topic)

	var pending map[int32]int64
	for pending == nil {
		var err error
		pending, err = s.pendingPartitions(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error("failed to list offsets", "err", err)
			onError(err)
			s.consumer.slowDown(ctx)
		}
	}

	coll := newCollection(pending)
	log.Info("catching up", "nPartitions", len(pending))
	if coll.ready() {
		onChange(coll.snapshot())
	}

	sub := subscription{
		opPrefix: s.opPrefix,
		coll:     coll,
		decoder:  s.decoder,
		onChange: onChange,
	}
	s.consumer.run(ctx, &sub, onError)
}

// pendingPartitions returns the partitions having records,
// empty partitions have the start offset equal to the end one.
func (s PropertiesSubscriber) pendingPartitions(
	ctx context.Context,
) (map[int32]int64, error) {
	const op = "pendingPartitions"

	starts, err := s.offsets.ListStartOffsets(ctx, s.topic)
	if err != nil {
		return nil, opErr(err, s.opPrefix, op)
	}
	if err := starts.Error(); err != nil {
		return nil, opErr(err, s.opPrefix, op)
	}

	ends, err := s.offsets.ListEndOffsets(ctx, s.topic)
	if err != nil {
		return nil, opErr(err, s.opPrefix, op)
	}
	if err := ends.Error(); err != nil {
		return nil, opErr(err, s.opPrefix, op)
	}

	pending := make(map[int32]int64)
	ends.Each(func(end kadm.ListedOffset) {
		start, ok := starts.Lookup(end.Topic, end.Partition)
		if ok && start.Offset >= end.Offset {
			return
		}
		pending[end.Partition] = end.Offset
	})
	return pending, nil
}

// A subscription is the consumer parent of a single Subscribe call.
type subscription struct {
	opPrefix string
	coll     *collection
	decoder  Decoder
	onChange func([]domain.Property)
}

func (s *subscription) processFetches(
	_ context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	var errs []error
	fetches.EachRecord(func(r *kgo.Record) {
		doc, err := s.decodeRecValue(r)
		if err != nil {
			errs = append(errs, err)
			s.coll.seen(r.Partition, r.Offset)
			return
		}
		s.coll.apply(r.Partition, r.Offset, string(r.Key), doc)
	})

	if s.coll.ready() {
		s.onChange(s.coll.snapshot())
	}

	if len(errs) != 0 {
		return opErr(errors.Join(errs...), s.opPrefix, op)
	}
	return nil
}

// decodeRecValue returns nil document for a tombstone.
func (s *subscription) decodeRecValue(
	r *kgo.Record,
) (*domain.Property, error) {
	if r.Value == nil {
		return nil, nil
	}

	var v schema.PropertyV1
	if err := s.decoder.Decode(r.Value, &v); err != nil {
		return nil, err
	}
	doc := schemaV1ToProperty(v)
	doc.ID = string(r.Key)
	return &doc, nil
}
