package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/limaJavier/dropadd/pkg/reassign"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ reassign.Observer = (*PromObserver)(nil)

func TestPromObserver(t *testing.T) {
	//** Arrange
	observer, err := NewPromObserver()
	require.NoError(t, err)

	//** Act
	observer.PathApplied(2)
	observer.PathApplied(3)
	observer.PathRejected(4)
	observer.SweepCompleted(2)
	observer.SweepCompleted(0)
	observer.SetSatisfaction(0.5)

	//** Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(observer.applied))
	assert.Equal(t, 1.0, testutil.ToFloat64(observer.rejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(observer.sweeps))
	assert.Equal(t, 0.5, testutil.ToFloat64(observer.satisfaction))
	assert.Equal(t, 1, testutil.CollectAndCount(observer.pathLength))

	expected := `
# HELP dropadd_paths_applied_total Total number of augmenting paths committed
# TYPE dropadd_paths_applied_total counter
dropadd_paths_applied_total 2
`
	assert.NoError(t, testutil.CollectAndCompare(observer.applied, strings.NewReader(expected)))
}

func TestPromObserverIndependentRegistries(t *testing.T) {
	first, err := NewPromObserver()
	require.NoError(t, err)
	second, err := NewPromObserver()
	require.NoError(t, err)

	first.PathApplied(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.applied))
	assert.Zero(t, testutil.ToFloat64(second.applied))
}

func TestWriteTextfile(t *testing.T) {
	//** Arrange
	observer, err := NewPromObserver()
	require.NoError(t, err)
	observer.SweepCompleted(0)
	path := filepath.Join(t.TempDir(), "dropadd.prom")

	//** Act
	err = observer.WriteTextfile(path)

	//** Assert
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "dropadd_sweeps_total 1")
	assert.Contains(t, string(content), "dropadd_path_length_bucket")
}
