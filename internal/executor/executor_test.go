package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/failfix/internal/logging"
	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

// fakeRunner records every command and answers from a script keyed by command.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	respond func(ctx context.Context, command string) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir, command string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	f.mu.Unlock()
	if f.respond == nil {
		return "", nil
	}
	return f.respond(ctx, command)
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errExit1 = errors.New("exit status 1")

func descriptor(auto bool, commands ...string) remediation.Descriptor {
	return remediation.Descriptor{
		Category:    "build_failure",
		Title:       "Fix Build Errors",
		Commands:    commands,
		AutoFixable: auto,
	}
}

func TestApply_NotAutoFixable(t *testing.T) {
	runner := &fakeRunner{}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(false, "mvn test", "npm test"))

	assert.ErrorIs(t, res.Err, ErrNotAutoFixable)
	assert.False(t, res.Attempted)
	assert.False(t, res.Applied)
	assert.Empty(t, res.Outcomes)
	assert.Equal(t, "fix requires manual intervention", res.Log)
	assert.Empty(t, runner.Calls(), "no command may run")
}

func TestApply_AllSucceed(t *testing.T) {
	runner := &fakeRunner{}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(true, "mvn clean compile", "npm install --force"))

	require.NoError(t, res.Err)
	assert.True(t, res.Attempted)
	assert.True(t, res.Applied)
	assert.Equal(t, []string{"mvn clean compile", "npm install --force"}, runner.Calls())
	assert.Equal(t, "✓ mvn clean compile\n✓ npm install --force", res.Log)
	assert.Equal(t, 2, res.Counts()[StatusSucceeded])
}

func TestApply_NoShortCircuit(t *testing.T) {
	runner := &fakeRunner{respond: func(_ context.Context, cmd string) (string, error) {
		if cmd == "first" {
			return "boom", errExit1
		}
		return "", nil
	}}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(true, "first", "second"))

	assert.Equal(t, []string{"first", "second"}, runner.Calls())
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, StatusFailed, res.Outcomes[0].Status)
	assert.Equal(t, "boom", res.Outcomes[0].Stderr)
	assert.Equal(t, StatusSucceeded, res.Outcomes[1].Status)
	assert.True(t, res.Applied, "one success is enough")
	assert.Equal(t, "✗ first\nboom\n✓ second", res.Log)
}

func TestApply_AllFail(t *testing.T) {
	runner := &fakeRunner{respond: func(context.Context, string) (string, error) {
		return "", errors.New("exec: \"mvn\": executable file not found in $PATH")
	}}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(true, "mvn clean compile"))

	assert.True(t, res.Attempted)
	assert.False(t, res.Applied)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, StatusFailed, res.Outcomes[0].Status)
	assert.Contains(t, res.Outcomes[0].Stderr, "executable file not found")
	assert.True(t, strings.HasPrefix(res.Log, "✗ mvn clean compile: exec:"))
}

func TestApply_AdvisoryNeverRuns(t *testing.T) {
	runner := &fakeRunner{}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(true, "# comment only"))

	assert.Empty(t, runner.Calls())
	assert.True(t, res.Attempted)
	assert.False(t, res.Applied, "comment-only descriptors are never applied")
	assert.Equal(t, []string{"# comment only"}, res.Skipped)
	assert.Empty(t, res.Log)
}

func TestApply_AdvisoryWithRealCommand(t *testing.T) {
	runner := &fakeRunner{}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(true, "npm audit fix", "# Update specific vulnerable packages"))

	assert.Equal(t, []string{"npm audit fix"}, runner.Calls())
	assert.True(t, res.Applied)
	assert.Len(t, res.Skipped, 1)
}

func TestApply_Timeout(t *testing.T) {
	runner := &fakeRunner{respond: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "partial", ctx.Err()
	}}
	e := New(runner, Config{Timeout: 20 * time.Millisecond}, nil)

	res := e.Apply(context.Background(), descriptor(true, "sleep forever", "sleep again"))

	require.Len(t, res.Outcomes, 2, "timeout does not stop later commands")
	for _, o := range res.Outcomes {
		assert.Equal(t, StatusTimedOut, o.Status)
	}
	assert.False(t, res.Applied)
	assert.Equal(t, "⏱ sleep forever (timed out)\n⏱ sleep again (timed out)", res.Log)
}

func TestApply_StderrTruncated(t *testing.T) {
	long := strings.Repeat("é", 800)
	runner := &fakeRunner{respond: func(context.Context, string) (string, error) {
		return long, errExit1
	}}
	e := New(runner, Config{}, nil)

	res := e.Apply(context.Background(), descriptor(true, "noisy"))

	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, 500, len([]rune(res.Outcomes[0].Stderr)))
}

func TestApply_LogsFailures(t *testing.T) {
	tl := logging.NewTestLogger()
	runner := &fakeRunner{respond: func(context.Context, string) (string, error) {
		return "nope", errExit1
	}}
	e := New(runner, Config{}, tl.Underlying())

	e.Apply(context.Background(), descriptor(true, "make fix"))

	tl.AssertLogged(t, zapcore.InfoLevel, "executing")
	tl.AssertLogged(t, zapcore.WarnLevel, "command did not succeed")
	tl.AssertField(t, "command did not succeed", "status", "failed")
}

func TestApplyAll_OrderAndIndependence(t *testing.T) {
	runner := &fakeRunner{respond: func(_ context.Context, cmd string) (string, error) {
		if strings.HasPrefix(cmd, "bad") {
			return "", errExit1
		}
		return "", nil
	}}

	ds := []remediation.Descriptor{
		{Category: "a", Title: "A", Commands: []string{"bad-a"}, AutoFixable: true},
		{Category: "b", Title: "B", Commands: []string{"manual"}, AutoFixable: false},
		{Category: "c", Title: "C", Commands: []string{"good-c"}, AutoFixable: true},
	}

	for _, parallel := range []int{1, 3} {
		e := New(runner, Config{Parallelism: parallel}, nil)
		results := e.ApplyAll(context.Background(), ds)

		require.Len(t, results, 3)
		assert.Equal(t, "A", results[0].Descriptor.Title)
		assert.False(t, results[0].Applied)
		assert.ErrorIs(t, results[1].Err, ErrNotAutoFixable)
		assert.True(t, results[2].Applied, "a failed descriptor must not block later ones")
		assert.Equal(t, []string{"C"}, AppliedTitles(results))
	}
}

func TestApplyAll_CommandOrderWithinDescriptor(t *testing.T) {
	var mu sync.Mutex
	order := map[string][]string{}
	runner := RunnerFunc(func(_ context.Context, _ string, cmd string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		key := cmd[:1]
		order[key] = append(order[key], cmd)
		return "", nil
	})
	e := New(runner, Config{Parallelism: 2}, nil)

	e.ApplyAll(context.Background(), []remediation.Descriptor{
		{Category: "x", Title: "X", Commands: []string{"x1", "x2", "x3"}, AutoFixable: true},
		{Category: "y", Title: "Y", Commands: []string{"y1", "y2", "y3"}, AutoFixable: true},
	})

	assert.Equal(t, []string{"x1", "x2", "x3"}, order["x"])
	assert.Equal(t, []string{"y1", "y2", "y3"}, order["y"])
}
