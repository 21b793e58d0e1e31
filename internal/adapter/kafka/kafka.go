package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/pkg/schema"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

// Security holds the optional broker connection settings.
// Zero value means plaintext without authentication.
type Security struct {
	TLS  *tls.Config
	User string
	Pass string
}

func (s Security) kgoOpts() (opts []kgo.Opt) {
	if s.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(s.TLS))
	}
	if s.User != "" {
		opts = append(opts, kgo.SASL(
			plain.Auth{User: s.User, Pass: s.Pass}.AsMechanism(),
		))
	}
	return opts
}

// applySASLTLS replaces goka global sarama config,
// must be called before creating goka processors.
func applySASLTLS(s Security) {
	if s.TLS == nil && s.User == "" {
		return
	}
	cfg := goka.DefaultConfig()
	if s.TLS != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = s.TLS
	}
	if s.User != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.User = s.User
		cfg.Net.SASL.Password = s.Pass
	}
	goka.ReplaceGlobalConfig(cfg)
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl         ProducerClient
	encoder    Encoder
	docEncoder Encoder
}

func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, sec Security,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		cl, err := kgo.NewClient(append(kopts, sec.kgoOpts()...)...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

// ProducerDocumentEncoderOpt sets the encoder of stored documents,
// it is used for measuring documents size.
func ProducerDocumentEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("document encoder is nil")
		}
		opts.docEncoder = encoder
		return nil
	}
}

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	cl      ConsumerClient
	offsets OffsetsLister
	topic   string
	decoder Decoder
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	return nil
}

// ConsumerClientOpt creates a groupless client reading topic from the start.
func ConsumerClientOpt(
	seedBrokers []string, topic string, sec Security,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			kgo.FetchMaxWait(time.Second),
		}
		cl, err := kgo.NewClient(append(kopts, sec.kgoOpts()...)...)
		if err != nil {
			return err
		}
		co.cl = cl
		co.offsets = kadm.NewClient(cl)
		co.topic = topic
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	Close()
}

type OffsetsLister interface {
	ListStartOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
	ListEndOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func propertyToSchemaV1(v domain.Property) (s schema.PropertyV1) {
	s.ID = v.ID
	s.Title = v.Title
	s.Location = v.Location
	s.Description = v.Description
	s.Price = v.Price
	s.Type = string(v.Type)
	s.Beds = v.Beds
	s.Baths = v.Baths
	s.Area = v.Area
	s.Garages = v.Garages
	s.IPTU = v.IPTU
	s.Condo = v.Condo
	s.Image = v.Image
	s.Gallery = slices.Clone(v.Gallery)
	if s.Gallery == nil {
		s.Gallery = []string{}
	}
	s.Featured = v.Featured
	if !v.UpdatedAt.IsZero() {
		s.UpdatedAt = v.UpdatedAt.UnixMilli()
	}
	s.UpdatedBy = v.UpdatedBy
	return
}

func schemaV1ToProperty(s schema.PropertyV1) (v domain.Property) {
	v.ID = s.ID
	v.Title = s.Title
	v.Location = s.Location
	v.Description = s.Description
	v.Price = s.Price
	v.Type = domain.PropertyType(s.Type)
	v.Beds = s.Beds
	v.Baths = s.Baths
	v.Area = s.Area
	v.Garages = s.Garages
	v.IPTU = s.IPTU
	v.Condo = s.Condo
	v.Image = s.Image
	v.Gallery = s.Gallery
	v.Featured = s.Featured
	if s.UpdatedAt != 0 {
		v.UpdatedAt = time.UnixMilli(s.UpdatedAt).UTC()
	}
	v.UpdatedBy = s.UpdatedBy
	return
}

func commandToSchemaV1(v domain.PropertyCommand) (s schema.PropertyCommandV1) {
	s.Kind = string(v.Kind)
	s.PropertyID = v.PropertyID
	if v.Property != nil {
		p := propertyToSchemaV1(*v.Property)
		s.Property = &p
	}
	return
}
