package schema

// PropertySchemaTextV1 is a listing document as it is stored in the
// properties group table.
//
// updated_at is unix milliseconds, 0 when unknown.
const PropertySchemaTextV1 = `{
	"type": "record",
	"namespace": "primehouse",
	"name": "property",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "title", "type": "string"},
		{"name": "location", "type": "string"},
		{"name": "description", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "type", "type": "string"},
		{"name": "beds", "type": "double"},
		{"name": "baths", "type": "double"},
		{"name": "area", "type": "double"},
		{"name": "garages", "type": "int"},
		{"name": "iptu", "type": ["null", "double"], "default": null},
		{"name": "condo", "type": ["null", "double"], "default": null},
		{"name": "image", "type": "string"},
		{"name": "gallery", "type": {"type": "array", "items": "string"}},
		{"name": "featured", "type": "boolean"},
		{"name": "updated_at", "type": "long"},
		{"name": "updated_by", "type": "string"}
	]
}`

// PropertyCommandSchemaTextV1 is an admin command on the property_commands
// stream. The property is set for upsert commands only.
const PropertyCommandSchemaTextV1 = `{
	"type": "record",
	"namespace": "primehouse",
	"name": "property_command",
	"fields": [
		{"name": "kind", "type": "string"},
		{"name": "property_id", "type": "string"},
		{"name": "property", "type": ["null", ` + PropertySchemaTextV1 + `], "default": null}
	]
}`

type (
	PropertyV1 struct {
		ID          string   `avro:"id"`
		Title       string   `avro:"title"`
		Location    string   `avro:"location"`
		Description string   `avro:"description"`
		Price       float64  `avro:"price"`
		Type        string   `avro:"type"`
		Beds        float64  `avro:"beds"`
		Baths       float64  `avro:"baths"`
		Area        float64  `avro:"area"`
		Garages     int      `avro:"garages"`
		IPTU        *float64 `avro:"iptu"`
		Condo       *float64 `avro:"condo"`
		Image       string   `avro:"image"`
		Gallery     []string `avro:"gallery"`
		Featured    bool     `avro:"featured"`
		UpdatedAt   int64    `avro:"updated_at"`
		UpdatedBy   string   `avro:"updated_by"`
	}

	PropertyCommandV1 struct {
		Kind       string      `avro:"kind"`
		PropertyID string      `avro:"property_id"`
		Property   *PropertyV1 `avro:"property"`
	}
)
