package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.PropertyCommandEmitter = (*PropertyCommandsProducer)(nil)
var _ port.DocumentSizer = (*PropertyCommandsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A PropertyCommandsProducer produces admin commands keyed by property id.
type PropertyCommandsProducer struct {
	producer   producer
	encoder    Encoder
	docEncoder Encoder
	opPrefix   string
}

func NewPropertyCommandsProducer(
	opts ...ProducerOpt,
) (PropertyCommandsProducer, error) {
	const op = "NewPropertyCommandsProducer"

	if len(opts) != 3 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return PropertyCommandsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "PropertyCommandsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return PropertyCommandsProducer{
		producer:   p,
		encoder:    options.encoder,
		docEncoder: options.docEncoder,
		opPrefix:   opPrefix,
	}, nil
}

func (p PropertyCommandsProducer) Close() {
	p.producer.close()
}

func (p PropertyCommandsProducer) EmitCommand(
	ctx context.Context, cmd domain.PropertyCommand,
) error {
	const op = "EmitCommand"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(cmd)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

// DocumentSize returns the size of the document as it is stored
// in the group table.
func (p PropertyCommandsProducer) DocumentSize(
	v domain.Property,
) (int, error) {
	const op = "DocumentSize"

	b, err := p.docEncoder.Encode(propertyToSchemaV1(v))
	if err != nil {
		return 0, opErr(err, p.opPrefix, op)
	}
	return len(b), nil
}

func (p PropertyCommandsProducer) createRecord(
	v domain.PropertyCommand,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := commandToSchemaV1(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.PropertyID), Value: b}, nil
}
