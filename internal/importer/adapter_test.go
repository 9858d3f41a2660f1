package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/lcroisez/undini/internal/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStrategy struct {
	name   string
	err    error
	called *bool
}

func (s scriptedStrategy) Name() string { return s.name }

func (s scriptedStrategy) Import(context.Context, editor.Session, Request) error {
	if s.called != nil {
		*s.called = true
	}
	return s.err
}

func TestStrictPriorityOrder(t *testing.T) {
	var aCalled, bCalled, cCalled bool
	adapter := NewAdapter(editor.NewFake(), nil).WithStrategies(
		scriptedStrategy{name: "A", err: errors.New("boom"), called: &aCalled},
		scriptedStrategy{name: "B", called: &bCalled},
		scriptedStrategy{name: "C", called: &cCalled},
	)

	out, err := adapter.ImportArtifact(context.Background(), Request{AssetPath: "/Game/CSV/mesh_1"})
	require.NoError(t, err)
	assert.Equal(t, "B", out.StrategyUsed)
	assert.True(t, aCalled)
	assert.True(t, bCalled)
	assert.False(t, cCalled, "later strategies never run after a success")
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, "A", out.Attempts[0].Strategy)
}

func TestExhaustionReportsEveryAttempt(t *testing.T) {
	adapter := NewAdapter(editor.NewFake(), nil).WithStrategies(
		scriptedStrategy{name: "A", err: errors.New("no such function")},
		scriptedStrategy{name: "B", err: errors.New("factory rejected")},
	)

	out, err := adapter.ImportArtifact(context.Background(), Request{AssetPath: "/Game/CSV/mat_1"})
	require.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, out.StrategyUsed)
	require.Len(t, out.Attempts, 2)
	assert.Contains(t, err.Error(), "no such function")
	assert.Contains(t, err.Error(), "factory rejected")
}

func TestReimportSkippedWhenAssetAbsent(t *testing.T) {
	fake := editor.NewFake()
	adapter := NewAdapter(fake, nil)

	out, err := adapter.ImportArtifact(context.Background(), Request{
		SourceFile: "/out/csv/mesh_2.csv",
		DestFolder: "/Game/CSV",
		AssetName:  "mesh_2",
		AssetPath:  "/Game/CSV/mesh_2",
		Exists:     false,
	})
	require.NoError(t, err)
	assert.Equal(t, "import-task", out.StrategyUsed)
	assert.Equal(t, []string{"task:mesh_2"}, fake.Calls, "reimport never hits the session without an existing asset")
}

func TestReimportUpdatesInPlace(t *testing.T) {
	fake := editor.NewFake()
	fake.AddAsset("/Game/CSV/mesh_2")
	adapter := NewAdapter(fake, nil)

	out, err := adapter.ImportArtifact(context.Background(), Request{
		SourceFile: "/out/csv/mesh_2.csv",
		DestFolder: "/Game/CSV",
		AssetName:  "mesh_2",
		AssetPath:  "/Game/CSV/mesh_2",
		Exists:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "reimport-existing", out.StrategyUsed)

	// The asset database still holds exactly one mesh_2, no suffixed copy.
	assets, err := fake.ListAssets(context.Background(), "/Game/CSV")
	require.NoError(t, err)
	assert.Equal(t, []string{"/Game/CSV/mesh_2"}, assets)
}

func TestFallsThroughBrokenReimport(t *testing.T) {
	fake := editor.NewFake()
	fake.AddAsset("/Game/CSV/mesh_4")
	fake.ReimportErr = errors.New("reimport_asset not exposed in this build")
	adapter := NewAdapter(fake, nil)

	out, err := adapter.ImportArtifact(context.Background(), Request{
		SourceFile: "/out/csv/mesh_4.csv",
		DestFolder: "/Game/CSV",
		AssetName:  "mesh_4",
		AssetPath:  "/Game/CSV/mesh_4",
		Exists:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "import-task", out.StrategyUsed)
	assert.Equal(t, []string{"reimport:/Game/CSV/mesh_4", "task:mesh_4"}, fake.Calls)
}
