package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

func TestBuiltin(t *testing.T) {
	moderate, ok := Builtin(ModelModerate)
	require.True(t, ok)
	assert.Equal(t, 60.0, moderate.StocksPct)
	assert.Equal(t, 25.0, moderate.CryptoPct)
	assert.Equal(t, 15.0, moderate.MetalsPct)

	aggressive, ok := Builtin(ModelAggressive)
	require.True(t, ok)
	assert.Equal(t, 50.0, aggressive.StocksPct)
	assert.Equal(t, 40.0, aggressive.CryptoPct)

	conservative, ok := Builtin(ModelConservative)
	require.True(t, ok)
	assert.Equal(t, 70.0, conservative.StocksPct)

	_, ok = Builtin("yolo")
	assert.False(t, ok)
}

func TestBuiltinModels_OrderAndValidity(t *testing.T) {
	models := BuiltinModels()
	require.Len(t, models, 3)

	assert.Equal(t, ModelModerate, models[0].Name)
	assert.Equal(t, ModelAggressive, models[1].Name)
	assert.Equal(t, ModelConservative, models[2].Name)

	for _, m := range models {
		assert.NoError(t, m.Validate())
	}
}

func TestCustom(t *testing.T) {
	model, err := Custom(55, 30, 15)
	require.NoError(t, err)
	assert.Equal(t, ModelCustom, model.Name)
	assert.Equal(t, 55.0, model.StocksPct)

	_, err = Custom(55, 30, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidModel)

	_, err = Custom(-10, 60, 50)
	assert.ErrorIs(t, err, domain.ErrInvalidModel)
}

func TestResolve(t *testing.T) {
	model, err := Resolve(ModelAggressive)
	require.NoError(t, err)
	assert.Equal(t, 40.0, model.CryptoPct)

	_, err = Resolve("balanced-growth")
	assert.ErrorIs(t, err, domain.ErrInvalidModel)

	_, err = Resolve("")
	assert.ErrorIs(t, err, domain.ErrInvalidModel)
}
