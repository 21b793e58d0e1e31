package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// jsonSerde stands in for the schema registry serde.
type jsonSerde struct{}

func (jsonSerde) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonSerde) Decode(b []byte, v any) error { return json.Unmarshal(b, v) }

func ptr(v float64) *float64 { return &v }

func TestPropertySchemaMapping(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		v := domain.Property{
			ID:        "p1",
			Title:     "Casa",
			Location:  "Ubatuba",
			Price:     500000,
			Type:      domain.PropertyTypeSale,
			Beds:      3,
			Garages:   1,
			IPTU:      ptr(120),
			Image:     "main.jpg",
			Gallery:   []string{"1.jpg"},
			Featured:  true,
			UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			UpdatedBy: "admin@primehouse.com",
		}

		s := propertyToSchemaV1(v)
		assert.Equal(t, "sale", s.Type)
		assert.Equal(t, int64(1714564800000), s.UpdatedAt)

		assert.Equal(t, v, schemaV1ToProperty(s))
	})

	t.Run("ZeroTimeAndNilGallery", func(t *testing.T) {
		s := propertyToSchemaV1(domain.Property{ID: "p1"})
		assert.Zero(t, s.UpdatedAt)
		assert.NotNil(t, s.Gallery)

		v := schemaV1ToProperty(s)
		assert.True(t, v.UpdatedAt.IsZero())
	})

	t.Run("Command", func(t *testing.T) {
		s := commandToSchemaV1(domain.PropertyCommand{
			Kind: domain.CommandDelete, PropertyID: "p1",
		})
		assert.Equal(t, schema.PropertyCommandV1{Kind: "delete", PropertyID: "p1"}, s)

		p := domain.Property{ID: "p1", Title: "Casa"}
		s = commandToSchemaV1(domain.PropertyCommand{
			Kind: domain.CommandUpsert, PropertyID: "p1", Property: &p,
		})
		require.NotNil(t, s.Property)
		assert.Equal(t, "Casa", s.Property.Title)
	})
}

type fakeProducerClient struct {
	records []*kgo.Record
	err     error
}

func (c *fakeProducerClient) ProduceSync(
	_ context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	c.records = append(c.records, rs...)
	var res kgo.ProduceResults
	for _, r := range rs {
		res = append(res, kgo.ProduceResult{Record: r, Err: c.err})
	}
	return res
}

func (c *fakeProducerClient) Close() {}

func newTestProducer(cl ProducerClient) PropertyCommandsProducer {
	return PropertyCommandsProducer{
		producer:   producer{opPrefix: "PropertyCommandsProducer", cl: cl},
		encoder:    jsonSerde{},
		docEncoder: jsonSerde{},
		opPrefix:   "PropertyCommandsProducer",
	}
}

func TestPropertyCommandsProducer(t *testing.T) {
	t.Run("KeyedByPropertyID", func(t *testing.T) {
		cl := new(fakeProducerClient)
		p := newTestProducer(cl)

		err := p.EmitCommand(t.Context(), domain.PropertyCommand{
			Kind: domain.CommandClearGallery, PropertyID: "p7",
		})
		require.NoError(t, err)

		require.Len(t, cl.records, 1)
		assert.Equal(t, []byte("p7"), cl.records[0].Key)

		var s schema.PropertyCommandV1
		require.NoError(t, json.Unmarshal(cl.records[0].Value, &s))
		assert.Equal(t, "clear_gallery", s.Kind)
	})

	t.Run("ProduceFailed", func(t *testing.T) {
		errBroker := errors.New("not enough replicas")
		p := newTestProducer(&fakeProducerClient{err: errBroker})

		err := p.EmitCommand(t.Context(), domain.PropertyCommand{
			Kind: domain.CommandDelete, PropertyID: "p7",
		})
		assert.ErrorIs(t, err, errBroker)
	})

	t.Run("DocumentSize", func(t *testing.T) {
		p := newTestProducer(new(fakeProducerClient))

		small, err := p.DocumentSize(domain.Property{ID: "p1"})
		require.NoError(t, err)

		big, err := p.DocumentSize(domain.Property{
			ID: "p1", Gallery: []string{string(make([]byte, 4096))},
		})
		require.NoError(t, err)
		assert.Greater(t, big, small+4096)
	})
}

// fakeGroupContext is a single key view of the group table.
type fakeGroupContext struct {
	key     string
	value   any
	deleted bool
}

func (c *fakeGroupContext) Key() string { return c.key }

func (c *fakeGroupContext) Value() any { return c.value }

func (c *fakeGroupContext) SetValue(v any, _ ...goka.ContextOption) {
	c.value = v
}

func (c *fakeGroupContext) Delete(_ ...goka.ContextOption) {
	c.value = nil
	c.deleted = true
}

func TestPropertiesProcessorApply(t *testing.T) {
	p := &PropertiesProcessor{opPrefix: "PropertiesProcessor"}

	t.Run("UpsertForcesKey", func(t *testing.T) {
		ctx := &fakeGroupContext{key: "p1"}
		p.apply(ctx, schema.PropertyCommandV1{
			Kind:     "upsert",
			Property: &schema.PropertyV1{ID: "other", Title: "Casa"},
		})

		v, ok := ctx.value.(schema.PropertyV1)
		require.True(t, ok)
		assert.Equal(t, "p1", v.ID)
		assert.Equal(t, "Casa", v.Title)
	})

	t.Run("UpsertWithoutProperty", func(t *testing.T) {
		ctx := &fakeGroupContext{key: "p1"}
		p.apply(ctx, schema.PropertyCommandV1{Kind: "upsert"})
		assert.Nil(t, ctx.value)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := &fakeGroupContext{key: "p1", value: schema.PropertyV1{ID: "p1"}}
		p.apply(ctx, schema.PropertyCommandV1{Kind: "delete"})
		assert.True(t, ctx.deleted)
	})

	t.Run("ClearGallery", func(t *testing.T) {
		ctx := &fakeGroupContext{key: "p1", value: schema.PropertyV1{
			ID: "p1", Title: "Casa", Gallery: []string{"1.jpg", "2.jpg"},
		}}
		p.apply(ctx, schema.PropertyCommandV1{Kind: "clear_gallery"})

		v := ctx.value.(schema.PropertyV1)
		assert.Empty(t, v.Gallery)
		assert.Equal(t, "Casa", v.Title)
	})

	t.Run("ClearGalleryMissing", func(t *testing.T) {
		ctx := &fakeGroupContext{key: "p1"}
		p.apply(ctx, schema.PropertyCommandV1{Kind: "clear_gallery"})
		assert.Nil(t, ctx.value)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		ctx := &fakeGroupContext{key: "p1", value: schema.PropertyV1{ID: "p1"}}
		p.apply(ctx, schema.PropertyCommandV1{Kind: "archive"})
		assert.Equal(t, schema.PropertyV1{ID: "p1"}, ctx.value)
		assert.False(t, ctx.deleted)
	})
}

func TestCollection(t *testing.T) {
	t.Run("ReadyAfterCatchingUp", func(t *testing.T) {
		c := newCollection(map[int32]int64{0: 2, 1: 1})
		assert.False(t, c.ready())

		c.apply(0, 0, "b", &domain.Property{ID: "b"})
		c.apply(1, 0, "a", &domain.Property{ID: "a"})
		assert.False(t, c.ready())

		c.seen(0, 1)
		assert.True(t, c.ready())
	})

	t.Run("SnapshotSortedByID", func(t *testing.T) {
		c := newCollection(map[int32]int64{})
		c.apply(0, 0, "c", &domain.Property{ID: "c"})
		c.apply(0, 1, "a", &domain.Property{ID: "a"})
		c.apply(0, 2, "b", &domain.Property{ID: "b"})

		ids := []string{}
		for _, p := range c.snapshot() {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("Tombstone", func(t *testing.T) {
		c := newCollection(map[int32]int64{})
		c.apply(0, 0, "a", &domain.Property{ID: "a"})
		c.apply(0, 1, "a", nil)
		assert.Empty(t, c.snapshot())
		assert.NotNil(t, c.snapshot())
	})
}

type fakeOffsets struct {
	starts, ends map[int32]int64
	err          error
}

func listed(topic string, offs map[int32]int64) kadm.ListedOffsets {
	lo := kadm.ListedOffsets{topic: make(map[int32]kadm.ListedOffset)}
	for p, o := range offs {
		lo[topic][p] = kadm.ListedOffset{Topic: topic, Partition: p, Offset: o}
	}
	return lo
}

func (f *fakeOffsets) ListStartOffsets(
	_ context.Context, topics ...string,
) (kadm.ListedOffsets, error) {
	return listed(topics[0], f.starts), f.err
}

func (f *fakeOffsets) ListEndOffsets(
	_ context.Context, topics ...string,
) (kadm.ListedOffsets, error) {
	return listed(topics[0], f.ends), f.err
}

// fakeConsumerClient serves queued batches, then blocks until ctx is done.
type fakeConsumerClient struct {
	batches chan kgo.Fetches
}

func (c *fakeConsumerClient) PollFetches(ctx context.Context) kgo.Fetches {
	select {
	case f := <-c.batches:
		return f
	case <-ctx.Done():
		return kgo.NewErrFetch(ctx.Err())
	}
}

func (c *fakeConsumerClient) Close() {}

const testTable = "properties_group-table"

func record(t *testing.T, offset int64, id string, v *schema.PropertyV1) *kgo.Record {
	r := &kgo.Record{Topic: testTable, Key: []byte(id), Offset: offset}
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		r.Value = b
	}
	return r
}

func batch(rs ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      testTable,
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: rs}},
	}}}}
}

type recorder struct {
	mu        sync.Mutex
	snapshots [][]domain.Property
	errs      []error
}

func (r *recorder) onChange(ps []domain.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, ps)
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) nSnapshots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func newTestSubscriber(
	cl ConsumerClient, offsets OffsetsLister,
) PropertiesSubscriber {
	return PropertiesSubscriber{
		opPrefix: "PropertiesSubscriber",
		consumer: newConsumer("PropertiesSubscriber", cl),
		offsets:  offsets,
		topic:    testTable,
		decoder:  jsonSerde{},
	}
}

func TestPropertiesSubscriber(t *testing.T) {
	t.Run("EmptyTable", func(t *testing.T) {
		cl := &fakeConsumerClient{batches: make(chan kgo.Fetches)}
		s := newTestSubscriber(cl, &fakeOffsets{
			starts: map[int32]int64{0: 5}, ends: map[int32]int64{0: 5},
		})

		ctx, cancel := context.WithCancel(t.Context())
		rec := new(recorder)
		done := make(chan struct{})
		go func() {
			s.Subscribe(ctx, rec.onChange, rec.onError)
			close(done)
		}()

		require.Eventually(t, func() bool {
			return rec.nSnapshots() == 1
		}, time.Second, 10*time.Millisecond)
		assert.Empty(t, rec.snapshots[0])

		cancel()
		<-done
	})

	t.Run("CatchUpThenEveryBatch", func(t *testing.T) {
		cl := &fakeConsumerClient{batches: make(chan kgo.Fetches, 3)}
		s := newTestSubscriber(cl, &fakeOffsets{
			starts: map[int32]int64{0: 0}, ends: map[int32]int64{0: 3},
		})

		cl.batches <- batch(
			record(t, 0, "b", &schema.PropertyV1{Title: "B"}),
			record(t, 1, "a", &schema.PropertyV1{Title: "A"}),
		)
		cl.batches <- batch(
			record(t, 2, "c", &schema.PropertyV1{Title: "C"}),
		)
		cl.batches <- batch(
			record(t, 3, "b", nil),
		)

		ctx, cancel := context.WithCancel(t.Context())
		rec := new(recorder)
		done := make(chan struct{})
		go func() {
			s.Subscribe(ctx, rec.onChange, rec.onError)
			close(done)
		}()

		require.Eventually(t, func() bool {
			return rec.nSnapshots() == 2
		}, time.Second, 10*time.Millisecond)
		cancel()
		<-done

		first := rec.snapshots[0]
		require.Len(t, first, 3)
		assert.Equal(t, "a", first[0].ID)
		assert.Equal(t, "A", first[0].Title)
		assert.Equal(t, "c", first[2].ID)

		second := rec.snapshots[1]
		require.Len(t, second, 2)
		assert.Equal(t, "a", second[0].ID)
		assert.Equal(t, "c", second[1].ID)
		assert.Empty(t, rec.errs)
	})

	t.Run("DecodeError", func(t *testing.T) {
		cl := &fakeConsumerClient{batches: make(chan kgo.Fetches, 1)}
		s := newTestSubscriber(cl, &fakeOffsets{
			starts: map[int32]int64{0: 0}, ends: map[int32]int64{0: 2},
		})

		broken := &kgo.Record{Topic: testTable, Key: []byte("x"), Offset: 1, Value: []byte("{")}
		cl.batches <- batch(
			record(t, 0, "a", &schema.PropertyV1{Title: "A"}),
			broken,
		)

		ctx, cancel := context.WithCancel(t.Context())
		rec := new(recorder)
		done := make(chan struct{})
		go func() {
			s.Subscribe(ctx, rec.onChange, rec.onError)
			close(done)
		}()

		require.Eventually(t, func() bool {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			return len(rec.snapshots) == 1 && len(rec.errs) == 1
		}, time.Second, 10*time.Millisecond)
		cancel()
		<-done

		assert.Len(t, rec.snapshots[0], 1)
	})

	t.Run("PartialFetchError", func(t *testing.T) {
		cl := &fakeConsumerClient{batches: make(chan kgo.Fetches, 1)}
		s := newTestSubscriber(cl, &fakeOffsets{
			starts: map[int32]int64{0: 0, 1: 0}, ends: map[int32]int64{0: 1, 1: 0},
		})

		cl.batches <- kgo.Fetches{{Topics: []kgo.FetchTopic{{
			Topic: testTable,
			Partitions: []kgo.FetchPartition{
				{Partition: 1, Err: errors.New("transient")},
				{Partition: 0, Records: []*kgo.Record{
					record(t, 0, "a", &schema.PropertyV1{Title: "A"}),
				}},
			},
		}}}}

		ctx, cancel := context.WithCancel(t.Context())
		rec := new(recorder)
		done := make(chan struct{})
		go func() {
			s.Subscribe(ctx, rec.onChange, rec.onError)
			close(done)
		}()

		require.Eventually(t, func() bool {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			return len(rec.snapshots) == 1 && len(rec.errs) == 1
		}, time.Second, 10*time.Millisecond)
		cancel()
		<-done

		require.Len(t, rec.snapshots[0], 1)
		assert.Equal(t, "a", rec.snapshots[0][0].ID)
		assert.Contains(t, rec.errs[0].Error(), "transient")
	})

	t.Run("OffsetsFailed", func(t *testing.T) {
		cl := &fakeConsumerClient{batches: make(chan kgo.Fetches)}
		s := newTestSubscriber(cl, &fakeOffsets{err: errors.New("no brokers")})

		ctx, cancel := context.WithCancel(t.Context())
		rec := new(recorder)
		done := make(chan struct{})
		go func() {
			s.Subscribe(ctx, rec.onChange, rec.onError)
			close(done)
		}()

		require.Eventually(t, func() bool {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			return len(rec.errs) > 0
		}, time.Second, 10*time.Millisecond)
		cancel()
		<-done

		assert.Zero(t, rec.nSnapshots())
	})
}
