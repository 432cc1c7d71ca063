package toolbox

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor_Success(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int `json:"x"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	require.NotNil(t, ext)
	require.NotNil(t, ext.Schema())
}

func TestExtractor_Schema_ShallowCopy(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int `json:"x"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	first := ext.Schema()
	first["type"] = "mutated"
	second := ext.Schema()
	assert.NotEqual(t, "mutated", second["type"])
}

func TestExtractor_ParseAndValidate_Success(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int    `json:"x"`
		S string `json:"s"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	args, err := ext.ParseAndValidate([]byte(`{"x": 42, "s": "hello"}`))
	require.NoError(t, err)
	assert.Equal(t, 42, args.X)
	assert.Equal(t, "hello", args.S)
}

func TestExtractor_ParseAndValidate_Nested(t *testing.T) {
	t.Parallel()
	type Address struct {
		Street string `json:"street"`
		City   string `json:"city"`
	}
	type Company struct {
		Name    string  `json:"name"`
		Address Address `json:"address"`
	}
	type Args struct {
		Companies []Company `json:"companies"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	args, err := ext.ParseAndValidate([]byte(`{
		"companies": [{
			"name": "Aether Innovations",
			"address": {"street": "150 Futura Plaza", "city": "Metropolis"}
		}]
	}`))
	require.NoError(t, err)
	require.Len(t, args.Companies, 1)
	assert.Equal(t, "Aether Innovations", args.Companies[0].Name)
	assert.Equal(t, "Metropolis", args.Companies[0].Address.City)
}

func TestExtractor_ParseAndValidate_InvalidJSON(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int `json:"x"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte(`{invalid`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestExtractor_ParseAndValidate_MissingRequired(t *testing.T) {
	t.Parallel()
	type Args struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte(`{"name": "Jason"}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExtractor_ParseAndValidate_WrongType(t *testing.T) {
	t.Parallel()
	type Args struct {
		Age int `json:"age"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte(`{"age": "twenty-five"}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

type rangeArgs struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (a rangeArgs) Validate() error {
	if a.Low > a.High {
		return fmt.Errorf("low (%d) must not exceed high (%d)", a.Low, a.High)
	}
	return nil
}

func TestExtractor_ParseAndValidate_Validatable(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[rangeArgs](false)
	require.NoError(t, err)

	args, err := ext.ParseAndValidate([]byte(`{"low": 1, "high": 10}`))
	require.NoError(t, err)
	assert.Equal(t, 1, args.Low)

	_, err = ext.ParseAndValidate([]byte(`{"low": 10, "high": 1}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "must not exceed")
}

type ptrValidatableArgs struct {
	N int `json:"n"`
}

func (a *ptrValidatableArgs) Validate() error {
	if a.N < 0 {
		return errors.New("n must be non-negative")
	}
	return nil
}

func TestExtractor_ParseAndValidate_PointerReceiverValidatable(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[ptrValidatableArgs](false)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte(`{"n": -1}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	args, err := ext.ParseAndValidate([]byte(`{"n": 3}`))
	require.NoError(t, err)
	assert.Equal(t, 3, args.N)
}
