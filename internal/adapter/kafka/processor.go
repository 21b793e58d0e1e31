package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/niksmo/prime-house/pkg/schema"
)

var _ port.PropertiesProcessor = (*PropertiesProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A commandCodec used for serde [schema.PropertyCommandV1]
type commandCodec struct {
	serde Serde
}

func (c commandCodec) Encode(v any) ([]byte, error) {
	const op = "commandCodec.Encode"
	if _, ok := v.(schema.PropertyCommandV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c commandCodec) Decode(data []byte) (any, error) {
	const op = "commandCodec.Decode"
	var s schema.PropertyCommandV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A propertyCodec used for serde [schema.PropertyV1]
type propertyCodec struct {
	serde Serde
}

func (c propertyCodec) Encode(v any) ([]byte, error) {
	const op = "propertyCodec.Encode"
	if _, ok := v.(schema.PropertyV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c propertyCodec) Decode(data []byte) (any, error) {
	const op = "propertyCodec.Decode"
	var s schema.PropertyV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A PropertiesProcessor applies admin commands from the input stream
// to the group table, which is the properties collection.
type PropertiesProcessor struct {
	opPrefix string
	proc     processor
}

// ProcessorConfig used for setup [PropertiesProcessor].
//
// Security is optional, other fields are required.
type ProcessorConfig struct {
	SeedBrokers   []string
	CommandsTopic string
	Group         string
	CommandSerde  Serde
	PropertySerde Serde
	Security      Security
}

// TableTopic returns the group table topic name, subscribers read it.
func TableTopic(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}

func NewPropertiesProc(config ProcessorConfig) (*PropertiesProcessor, error) {
	const op = "NewPropertiesProcessor"

	applySASLTLS(config.Security)

	p := PropertiesProcessor{opPrefix: "PropertiesProcessor"}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.CommandsTopic),
			commandCodec{config.CommandSerde},
			p.processFn,
		),
		goka.Persist(propertyCodec{config.PropertySerde}),
	)

	gp, err := goka.NewProcessor(config.SeedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *PropertiesProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *PropertiesProcessor) Close() {
	p.proc.close()
}

func (p *PropertiesProcessor) processFn(ctx goka.Context, msg any) {
	cmd, _ := msg.(schema.PropertyCommandV1)
	p.apply(ctx, cmd)
}

// groupContext is the part of [goka.Context] the commands are applied with.
type groupContext interface {
	Key() string
	Value() any
	SetValue(value any, options ...goka.ContextOption)
	Delete(options ...goka.ContextOption)
}

func (p *PropertiesProcessor) apply(ctx groupContext, cmd schema.PropertyCommandV1) {
	const op = "apply"
	log := slog.With(
		"op", makeOp(p.opPrefix, op), "id", ctx.Key(), "kind", cmd.Kind,
	)

	switch domain.PropertyCommandKind(cmd.Kind) {
	case domain.CommandUpsert:
		if cmd.Property == nil {
			log.Warn("upsert without property")
			return
		}
		v := *cmd.Property
		v.ID = ctx.Key()
		ctx.SetValue(v)
		log.Info("property stored")

	case domain.CommandDelete:
		ctx.Delete()
		log.Info("property deleted")

	case domain.CommandClearGallery:
		v, ok := ctx.Value().(schema.PropertyV1)
		if !ok {
			log.Warn("property does not exist")
			return
		}
		v.Gallery = []string{}
		ctx.SetValue(v)
		log.Info("gallery cleared")

	default:
		log.Warn("unknown command")
	}
}
