package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhuss/codexcli/pkg/backend"
)

func TestBuildExecArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    backend.Query
		want []string
	}{
		{
			name: "minimal",
			q:    backend.Query{Prompt: "hi"},
			want: []string{"exec", "--json", "-"},
		},
		{
			name: "model and flags",
			q: backend.Query{
				Model: "gpt-5",
				Settings: backend.Settings{
					Profile:          "work",
					WorkingDir:       "/tmp/project",
					Sandbox:          "read-only",
					OutputSchema:     "/tmp/schema.json",
					FullAuto:         backend.Bool(true),
					SkipGitRepoCheck: backend.Bool(true),
					Ephemeral:        backend.Bool(false),
					ApprovalPolicy:   "never",
					ReasoningEffort:  "high",
				},
			},
			want: []string{
				"exec", "--json",
				"-m", "gpt-5",
				"-p", "work",
				"--cd", "/tmp/project",
				"--sandbox", "read-only",
				"--output-schema", "/tmp/schema.json",
				"--full-auto",
				"--skip-git-repo-check",
				"-c", "approval_policy=never",
				"-c", "model_reasoning_effort=high",
				"-",
			},
		},
		{
			name: "config overrides sorted",
			q: backend.Query{Settings: backend.Settings{ConfigOverrides: map[string]string{
				"z.key":   "1",
				"a.key":   "two",
				"bad=key": "x",
				"-flag":   "x",
			}}},
			want: []string{"exec", "--json", "-c", "a.key=two", "-c", "z.key=1", "-"},
		},
		{
			name: "flag-like values dropped",
			q:    backend.Query{Model: "--help", Settings: backend.Settings{Sandbox: "-x", Profile: "a\x00b"}},
			want: []string{"exec", "--json", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, buildExecArgs(tt.q))
		})
	}
}

func TestBuildExecArgs_PromptNeverOnCommandLine(t *testing.T) {
	t.Parallel()

	args := buildExecArgs(backend.Query{Prompt: "--dangerous", SystemPrompt: "sys"})
	assert.NotContains(t, args, "--dangerous")
	assert.NotContains(t, args, "sys")
	assert.Equal(t, "-", args[len(args)-1])
}

func TestBuildStdin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    backend.Query
		want string
	}{
		{"prompt only", backend.Query{Prompt: "Human: hi"}, "Human: hi"},
		{"system only", backend.Query{SystemPrompt: "be brief"}, "be brief"},
		{"both", backend.Query{Prompt: "Human: hi", SystemPrompt: "be brief"}, "be brief\n\nHuman: hi"},
		{"empty", backend.Query{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, buildStdin(tt.q))
		})
	}
}

func TestMergeEnv(t *testing.T) {
	t.Parallel()

	got := mergeEnv(
		[]string{"PATH=/bin"},
		map[string]string{"B": "1", "A": "1"},
		map[string]string{"A": "2", "": "x", "BAD=KEY": "x", "NUL": "a\x00b"},
	)
	assert.Equal(t, []string{"PATH=/bin", "A=1", "B=1", "A=2"}, got)
}

func TestMergeEnv_DoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := make([]string, 1, 4)
	base[0] = "PATH=/bin"
	_ = mergeEnv(base, map[string]string{"X": "1"})
	assert.Equal(t, []string{"PATH=/bin"}, base)
	assert.Empty(t, base[:cap(base)][1])
}
