package aipanel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestJSONSchemaValidator(t *testing.T) {
	validator := NewJSONSchemaValidator()

	require.NoError(t, validator.Validate(SchemaInsights, []byte(`{"insights":[{"icon":"alert","title":"A","description":"B"}]}`)))
	require.NoError(t, validator.Validate(SchemaPredictions, []byte(`{"predictions":[]}`)))

	assert.Error(t, validator.Validate(SchemaInsights, []byte(`{"insights":[{"title":"missing description"}]}`)))
	assert.Error(t, validator.Validate(SchemaPredictions, []byte(`{"predictions":[{"period":"w1","predicted_leads":"many"}]}`)))
	assert.Error(t, validator.Validate(SchemaPredictions, []byte(`not json`)))
	assert.Error(t, validator.Validate("unknown", []byte(`{}`)))
}

func TestJSONSchemaValidatorCachesCompiledSchemas(t *testing.T) {
	validator := NewJSONSchemaValidator()
	require.NoError(t, validator.Validate(SchemaInsights, []byte(`{"insights":[]}`)))
	require.NoError(t, validator.Validate(SchemaInsights, []byte(`{"insights":[]}`)))
	assert.Len(t, validator.compiled, 1)
}
