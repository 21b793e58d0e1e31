package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/niksmo/prime-house/pkg/retry"
	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier resolves the registry id of the schema under subject,
// registering it when needed.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject string, avroSchemaText string) (id int, err error)
}

type SchemaRegistryClient interface {
	CreateSchema(ctx context.Context, subject string, s sr.Schema) (sr.SubjectSchema, error)
}

// A SchemaCreater registers avro schemas in the schema registry.
type SchemaCreater struct {
	cl    SchemaRegistryClient
	retry retry.RetryConfig
}

func NewSchemaCreater(cl SchemaRegistryClient) SchemaCreater {
	return SchemaCreater{
		cl: cl,
		retry: retry.RetryConfig{
			MaxAttempts: 5,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
		},
	}
}

func (c SchemaCreater) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (int, error) {
	const op = "SchemaCreater.DetermineID"

	ss, err := retry.DoWithResult(ctx, c.retry,
		func() (sr.SubjectSchema, error) {
			return c.cl.CreateSchema(ctx, subject, sr.Schema{
				Schema: avroSchemaText,
				Type:   sr.TypeAvro,
			})
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: subject %q: %w", op, subject, err)
	}
	return ss.ID, nil
}

func PropertyV1Avro() avro.Schema {
	return avro.MustParse(PropertySchemaTextV1)
}

func PropertyCommandV1Avro() avro.Schema {
	return avro.MustParse(PropertyCommandSchemaTextV1)
}
