package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const expenseSchema = `{
  "type": "object",
  "required": ["report_title", "expenses"],
  "properties": {
    "report_title": {"type": "string"},
    "expenses": {"type": "array"}
  }
}`

func TestSchemaValidator_Check(t *testing.T) {
	v, err := NewSchemaValidator(expenseSchema)
	require.NoError(t, err)

	require.Empty(t, v.Check(`{"report_title":"x","expenses":[]}`))
	require.Empty(t, v.Check(""), "blank input is not checked")
	require.Empty(t, v.Check("{bad"), "malformed input is not checked")

	issues := v.Check(`{"report_title":3}`)
	require.Len(t, issues, 2)
}

func TestSchemaValidator_NilIsNoop(t *testing.T) {
	var v *SchemaValidator
	require.Nil(t, v.Check(`{"a":1}`))
}

func TestNewSchemaValidator_InvalidSchema(t *testing.T) {
	_, err := NewSchemaValidator(`{"type": 12}`)
	require.Error(t, err)
}

func TestLoadSchemaValidator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(expenseSchema), 0600))

	v, err := LoadSchemaValidator(path)
	require.NoError(t, err)
	require.NotNil(t, v)

	_, err = LoadSchemaValidator(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
