package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankImportances(t *testing.T) {
	ranked, err := RankImportances(
		[]string{"Hour", "Driver_Age", "Weather", "Is_Night"},
		[]float64{0.2, 0.5, 0.2, 0.1},
	)
	require.NoError(t, err)
	assert.Equal(t, []FeatureScore{
		{"Driver_Age", 0.5},
		{"Hour", 0.2},
		{"Weather", 0.2},
		{"Is_Night", 0.1},
	}, ranked)

	_, err = RankImportances([]string{"a"}, nil)
	assert.Error(t, err)
}
