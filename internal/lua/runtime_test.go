package lua

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcroisez/undini/internal/steps"
)

func newTestRuntime() *Runtime {
	return NewRuntime(steps.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "workflow.lua")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestPlanAssemblesSteps(t *testing.T) {
	script := writeScript(t, `
function workflow(iteration)
    log("planning iteration " .. iteration)
    step("export-genzones")
    step("generate-roads")
    step("import-meshes")
end
`)
	r := newTestRuntime()
	plan, err := r.Plan(script, 7)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, "export-genzones", plan[0].Name())
	assert.Equal(t, "import-meshes", plan[2].Name())
	assert.Equal(t, []string{"planning iteration 7"}, r.Logs())
}

func TestPlanVariantExpansion(t *testing.T) {
	script := writeScript(t, `
function workflow(iteration)
    variant("buildings")
    step("place-pieces")
end
`)
	plan, err := newTestRuntime().Plan(script, 1)
	require.NoError(t, err)
	require.Len(t, plan, 6)
	assert.Equal(t, "export-splines", plan[0].Name())
	assert.Equal(t, "place-pieces", plan[5].Name())
}

func TestPlanConditionalOnIteration(t *testing.T) {
	script := writeScript(t, `
function workflow(iteration)
    if iteration > 5 then
        variant("roads")
    else
        variant("buildings")
    end
end
`)
	r := newTestRuntime()
	plan, err := r.Plan(script, 6)
	require.NoError(t, err)
	assert.Equal(t, "export-genzones", plan[0].Name())

	plan, err = r.Plan(script, 2)
	require.NoError(t, err)
	assert.Equal(t, "export-splines", plan[0].Name())
}

func TestPlanRejectsUnknownStep(t *testing.T) {
	script := writeScript(t, `
function workflow(iteration)
    step("frobnicate")
end
`)
	_, err := newTestRuntime().Plan(script, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestPlanStuckAbandons(t *testing.T) {
	script := writeScript(t, `
function workflow(iteration)
    step("export-splines")
    stuck("iteration not prepared")
end
`)
	_, err := newTestRuntime().Plan(script, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iteration not prepared")
}

func TestPlanRequiresWorkflowFunction(t *testing.T) {
	script := writeScript(t, `x = 1`)
	_, err := newTestRuntime().Plan(script, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow")
}

func TestPlanEmptyPlanIsAnError(t *testing.T) {
	script := writeScript(t, `function workflow(iteration) end`)
	_, err := newTestRuntime().Plan(script, 1)
	require.Error(t, err)
}

func TestSandboxBlocksCodeLoading(t *testing.T) {
	script := writeScript(t, `
function workflow(iteration)
    if loadfile ~= nil or dofile ~= nil or os ~= nil or io ~= nil then
        error("sandbox leak")
    end
    step("export-splines")
end
`)
	_, err := newTestRuntime().Plan(script, 1)
	require.NoError(t, err)
}

func TestIsWorkflowScript(t *testing.T) {
	assert.True(t, IsWorkflowScript("custom.lua"))
	assert.False(t, IsWorkflowScript("custom.yaml"))
}
