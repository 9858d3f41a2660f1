package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestArgs(t *testing.T) {
	req := Request{
		Driver:      "/opt/pipeline/topnet_driver.py",
		GraphFile:   "/graphs/buildings.hip",
		NodePath:    "/obj/geo1/topnet",
		Iteration:   5,
		SplinePath:  "/in/splines_export_from_UE_5.json",
		MeshSetPath: "/in/SM_genzones_PCG_HD_5.fbx",
		MeshDriven:  true,
		Outputs: []OutputFlag{
			{Flag: "--rop_pcg_export1_mesh_path", Path: "/out/mesh_5.csv"},
			{Flag: "--rop_pcg_export1_mat_path", Path: "/out/mat_5.csv"},
		},
	}

	assert.Equal(t, []string{
		"/opt/pipeline/topnet_driver.py",
		"--hip", "/graphs/buildings.hip",
		"--topnet", "/obj/geo1/topnet",
		"--file1_path", "/in/SM_genzones_PCG_HD_5.fbx",
		"--splines_path", "/in/splines_export_from_UE_5.json",
		"--rop_pcg_export1_mesh_path", "/out/mesh_5.csv",
		"--rop_pcg_export1_mat_path", "/out/mat_5.csv",
		"--iteration_number", "5",
		"--switch_bool", "1",
	}, req.Args())
}

func TestRequestArgsSplineMode(t *testing.T) {
	req := Request{Driver: "d.py", GraphFile: "g.hip", NodePath: "/obj/topnet", SplinePath: "/in/s.json"}
	args := req.Args()
	assert.Equal(t, "--switch_bool", args[len(args)-2])
	assert.Equal(t, "0", args[len(args)-1])
	assert.NotContains(t, args, "--file1_path")
}

func TestInvokeSuccess(t *testing.T) {
	r := NewRunner(nil)
	out, err := r.Invoke(context.Background(), "sh", []string{"-c", "echo cooked"}, 0)
	require.NoError(t, err)
	assert.True(t, out.Completed())
	assert.Equal(t, 0, out.ExitCode)
	assert.False(t, out.TimedOut)
	assert.Contains(t, out.Output, "cooked")
}

func TestInvokeNonZeroExit(t *testing.T) {
	r := NewRunner(nil)
	out, err := r.Invoke(context.Background(), "sh", []string{"-c", "echo 'ERROR: cook failed'; exit 3"}, 0)
	require.NoError(t, err)
	assert.False(t, out.Completed())
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, out.ErrorHint(), "cook failed")
}

func TestInvokeTimeout(t *testing.T) {
	r := NewRunner(nil)
	start := time.Now()
	out, err := r.Invoke(context.Background(), "sh", []string{"-c", "sleep 30"}, 100*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, out.TimedOut)
	assert.False(t, out.Completed())
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestInvokeAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	r := NewRunner(nil)
	out, err := r.Invoke(ctx, "sh", []string{"-c", "sleep 30"}, 0)
	require.NoError(t, err)
	assert.True(t, out.TimedOut, "abort classifies like a timeout")
}

func TestInvokeMissingExecutable(t *testing.T) {
	r := NewRunner(nil)
	_, err := r.Invoke(context.Background(), "/nonexistent/hython", []string{"d.py"}, 0)
	assert.Error(t, err)
}
