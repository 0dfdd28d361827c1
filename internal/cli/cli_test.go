// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/projectanalyst/internal/config"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/storage"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "flag with value",
			args:    []string{"login", "--name", "Alice"},
			wantSub: "login",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "Alice", p.Flag("name"))
			},
		},
		{
			name:    "equals form",
			args:    []string{"login", "--endpoint=http://localhost:8080/v1"},
			wantSub: "login",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "http://localhost:8080/v1", p.Flag("endpoint"))
			},
		},
		{
			name:    "known bool flag does not swallow positional",
			args:    []string{"--json", "show"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("json"))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"set", "--", "--odd"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "--odd", p.Positional(1))
				assert.False(t, p.HasFlag("odd"))
			},
		},
		{
			name:    "int flag",
			args:    []string{"--limit", "5"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				n, err := p.FlagInt("limit")
				require.NoError(t, err)
				assert.Equal(t, 5, n)
				assert.Equal(t, 9, p.FlagIntOrDefault("missing", 9))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args)
			assert.Equal(t, tt.wantSub, p.Subcommand())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestJoinPositionalArgs(t *testing.T) {
	p := NewArgParser([]string{"set", "app.name", "Project", "Analyst"})
	assert.Equal(t, "Project Analyst", JoinPositionalArgs(p, 2))
	assert.Equal(t, "", JoinPositionalArgs(p, 9))
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{nil, CmdTUI},
		{[]string{"tui"}, CmdTUI},
		{[]string{"chat"}, CmdChat},
		{[]string{"repl"}, CmdChat},
		{[]string{"ask", "hi"}, CmdAsk},
		{[]string{"a", "hi"}, CmdAsk},
		{[]string{"login"}, CmdLogin},
		{[]string{"signout"}, CmdLogout},
		{[]string{"status"}, CmdStatus},
		{[]string{"projects"}, CmdDataset},
		{[]string{"models"}, CmdModels},
		{[]string{"config"}, CmdConfig},
		{[]string{"--version"}, CmdVersion},
		{[]string{"-h"}, CmdHelp},
		{[]string{"bogus"}, CmdUnknown},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "_"), func(t *testing.T) {
			got, _ := Parse(tt.args)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestParse_GlobalFlags(t *testing.T) {
	cmd, args := Parse([]string{"-v", "--json", "--model=openai/gpt-4o", "--ephemeral", "ask", "Which", "projects?"})
	assert.Equal(t, CmdAsk, cmd)
	assert.True(t, args.Verbose)
	assert.True(t, args.JSON)
	assert.True(t, args.Ephemeral)
	assert.Equal(t, "openai/gpt-4o", args.Model)
	assert.Equal(t, "Which projects?", args.Query)

	_, args = Parse([]string{"ask", "-m", "haiku", "--", "-v", "is", "a", "flag"})
	assert.Equal(t, "haiku", args.Model)
	assert.False(t, args.Verbose)
	assert.Equal(t, "-v is a flag", args.Query)
}

func TestParse_ConfigAndDataset(t *testing.T) {
	_, args := Parse([]string{"config", "set", "cloud.model", "openai/gpt-4o-mini"})
	assert.Equal(t, "set", args.Subcommand)
	assert.Equal(t, "cloud.model", args.ConfigKey)
	assert.Equal(t, "openai/gpt-4o-mini", args.ConfigVal)

	_, args = Parse([]string{"dataset", "PRJ-002"})
	assert.Equal(t, "PRJ-002", args.Subcommand)

	_, args = Parse([]string{"--config", "/tmp/a.toml", "status"})
	assert.Equal(t, "/tmp/a.toml", args.Config)
}

func TestSuggestCommand(t *testing.T) {
	assert.Equal(t, "status", SuggestCommand("stauts"))
	assert.Equal(t, "login", SuggestCommand("logni"))
	assert.Equal(t, "", SuggestCommand("x"))
	assert.Equal(t, "", SuggestCommand("zzzzzzzzzz"))
}

func TestUnknownCommandError(t *testing.T) {
	err := UnknownCommandError("chta")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), "analyst chat")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitUsageError, GetExitCode(ErrMissingArgument("question", "")))
	assert.Equal(t, ExitUsageError, GetExitCode(WrapError(&ValidationError{Field: "x"}, "wrapped")))
	assert.Equal(t, ExitGeneralError, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitGeneralError, GetExitCode(&NotFoundError{Resource: "project", ID: "X"}))
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, errors.New("boom"), true)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "boom", *resp.Error)
}

func TestHandleVersion_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(Args{JSON: true}, &buf))
	assert.Contains(t, buf.String(), `"version"`)
}

// =============================================================================
// RUNTIME FIXTURES
// =============================================================================

// gateway is a fake chat completions endpoint.
type gateway struct {
	server *httptest.Server
	calls  atomic.Int32
	status int
	body   string
}

func newGateway(t *testing.T, status int, body string) *gateway {
	t.Helper()
	g := &gateway{status: status, body: body}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			g.calls.Add(1)
			w.WriteHeader(g.status)
			io.WriteString(w, g.body)
		case strings.HasSuffix(r.URL.Path, "/models"):
			io.WriteString(w, `{"data":[
				{"id":"openai/gpt-4o-mini","name":"GPT-4o mini","context_length":128000,"pricing":{"prompt":"0.00000015","completion":"0.0000006"}},
				{"id":"meta/llama-free","name":"Llama","context_length":8000,"pricing":{"prompt":"0","completion":"0"}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *gateway) endpoint() string {
	return g.server.URL + "/api/v1"
}

const okReply = `{"choices":[{"message":{"role":"assistant","content":"Project Apollo has spent $45,000."}}],
	"usage":{"prompt_tokens":120,"completion_tokens":8,"total_tokens":128}}`

type testRuntime struct {
	*Runtime
	out *bytes.Buffer
	err *bytes.Buffer
}

// isolate points the config directory at a temp dir and clears the
// credential variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)
	t.Setenv(session.EnvName, "")
	t.Setenv(session.EnvAPIKey, "")
	t.Setenv(session.EnvEndpoint, "")
	return dir
}

func newTestRuntime(t *testing.T, stdin string) *testRuntime {
	t.Helper()
	isolate(t)

	logger := zerolog.Nop()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	rt, err := NewRuntimeWithConfig(config.Default(), RuntimeOptions{
		Logger: &logger,
		Store:  storage.NewMemoryKV(),
		Stdin:  strings.NewReader(stdin),
		Stdout: out,
		Stderr: errOut,
	})
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return &testRuntime{Runtime: rt, out: out, err: errOut}
}

func (rt *testRuntime) signIn(t *testing.T, endpoint string) {
	t.Helper()
	require.NoError(t, rt.Sessions.Login("Alice", "sk-or-test", endpoint))
}

// =============================================================================
// RUNTIME TESTS (runtime.go)
// =============================================================================

func TestNewRuntimeWithConfig(t *testing.T) {
	rt := newTestRuntime(t, "")

	assert.Equal(t, "TechFlow Solutions", rt.Dataset.CompanyName)
	assert.Len(t, rt.Dataset.Projects, 4)
	assert.NotNil(t, rt.Engine)
	assert.Equal(t, config.Default().Cloud.Model, rt.Client.Model())
	assert.False(t, rt.Sessions.IsAuthenticated())
}

func TestNewRuntimeWithConfig_BadFixture(t *testing.T) {
	isolate(t)
	cfg := config.Default()
	cfg.Fixtures.DatasetPath = filepath.Join(t.TempDir(), "missing.json")

	logger := zerolog.Nop()
	_, err := NewRuntimeWithConfig(cfg, RuntimeOptions{Logger: &logger, Store: storage.NewMemoryKV()})
	assert.Error(t, err)
}

func TestRuntime_Credentials(t *testing.T) {
	rt := newTestRuntime(t, "")

	_, err := rt.Credentials(true)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	t.Setenv(session.EnvName, "Env User")
	t.Setenv(session.EnvAPIKey, "sk-or-env")
	creds, err := rt.Credentials(true)
	require.NoError(t, err)
	assert.Equal(t, "Env User", creds.DisplayName)

	_, err = rt.Credentials(false)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	rt.signIn(t, "")
	creds, err = rt.Credentials(true)
	require.NoError(t, err)
	assert.Equal(t, "Alice", creds.DisplayName)
}

func TestLoadConfig_Flags(t *testing.T) {
	isolate(t)
	t.Cleanup(config.ResetGlobalForTesting)

	cfg, err := LoadConfig(Args{Model: "openai/gpt-4o", Ephemeral: true})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", cfg.Cloud.Model)
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
}

// =============================================================================
// ASK TESTS (ask.go)
// =============================================================================

func TestHandleAsk_Success(t *testing.T) {
	g := newGateway(t, http.StatusOK, okReply)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	err := HandleAsk(Args{Query: "How much has Apollo spent?"}, rt.Runtime)
	require.NoError(t, err)

	assert.Contains(t, rt.out.String(), "Project Apollo has spent $45,000.")
	assert.Contains(t, rt.err.String(), "128 tokens")
	assert.Equal(t, int32(1), g.calls.Load())
	assert.Equal(t, 1, rt.Usage.Summary().Requests)
}

func TestHandleAsk_Stdin(t *testing.T) {
	g := newGateway(t, http.StatusOK, okReply)
	rt := newTestRuntime(t, "  Which project is over budget?\n")
	rt.signIn(t, g.endpoint())

	require.NoError(t, HandleAsk(Args{Quiet: true}, rt.Runtime))
	assert.Contains(t, rt.out.String(), "$45,000")
	assert.Empty(t, rt.err.String())
}

func TestHandleAsk_JSON(t *testing.T) {
	g := newGateway(t, http.StatusOK, okReply)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	require.NoError(t, HandleAsk(Args{Query: "Apollo?", JSON: true}, rt.Runtime))

	var resp struct {
		Success bool    `json:"success"`
		Data    AskData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rt.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Apollo?", resp.Data.Question)
	require.NotNil(t, resp.Data.Usage)
	assert.Equal(t, 128, resp.Data.Usage.TotalTokens)
}

func TestHandleAsk_Failure(t *testing.T) {
	g := newGateway(t, http.StatusInternalServerError, `{"error":{"message":"upstream exploded"}}`)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	err := HandleAsk(Args{Query: "Apollo?"}, rt.Runtime)
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, GetExitCode(err))
	assert.Equal(t, 1, rt.Usage.Summary().Failures)
}

func TestHandleAsk_NotSignedIn(t *testing.T) {
	rt := newTestRuntime(t, "")
	err := HandleAsk(Args{Query: "Apollo?"}, rt.Runtime)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestHandleAsk_NoQuestion(t *testing.T) {
	rt := newTestRuntime(t, "   ")
	err := HandleAsk(Args{}, rt.Runtime)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CHAT TESTS (chat.go)
// =============================================================================

// scriptedReader replays lines, then reports EOF.
type scriptedReader struct {
	lines   []string
	prompts int
	closed  bool
}

func (r *scriptedReader) Prompt(string) (string, error) {
	r.prompts++
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func newChat(t *testing.T, rt *testRuntime, lines ...string) (*ChatSession, *scriptedReader) {
	t.Helper()
	creds, err := rt.Credentials(false)
	require.NoError(t, err)
	reader := &scriptedReader{lines: lines}
	return NewChatSession(rt.Runtime, creds, reader, false), reader
}

func TestChatSession_SendAndQuit(t *testing.T) {
	g := newGateway(t, http.StatusOK, okReply)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	s, _ := newChat(t, rt, "How much has Apollo spent?", "", "/quit", "never sent")
	require.NoError(t, s.Run(t.Context()))

	out := rt.out.String()
	assert.Contains(t, out, "Hello Alice!")
	assert.Contains(t, out, "Connected to TechFlow Solutions DB")
	assert.Contains(t, out, "Project Apollo has spent $45,000.")
	assert.Contains(t, out, "Session Summary")
	assert.Equal(t, int32(1), g.calls.Load())
	assert.Equal(t, 3, s.State().Len())
}

func TestChatSession_Clear(t *testing.T) {
	g := newGateway(t, http.StatusOK, okReply)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	s, _ := newChat(t, rt, "Apollo?", "/clear", "/history")
	require.NoError(t, s.Run(t.Context()))

	assert.Equal(t, 0, s.State().Len())
	assert.Contains(t, rt.out.String(), "[Conversation cleared]")
	assert.Contains(t, rt.out.String(), "(empty)")
}

func TestChatSession_Failure(t *testing.T) {
	g := newGateway(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	s, _ := newChat(t, rt, "Apollo?", "exit")
	require.NoError(t, s.Run(t.Context()))

	assert.NotEmpty(t, s.State().LastError)
	assert.Contains(t, rt.out.String(), "[X]")
	// The question stays in the transcript.
	assert.Equal(t, 2, s.State().Len())
}

func TestChatSession_Logout(t *testing.T) {
	rt := newTestRuntime(t, "")
	rt.signIn(t, "")

	s, reader := newChat(t, rt, "/logout", "/help")
	require.NoError(t, s.Run(t.Context()))

	assert.False(t, rt.Sessions.IsAuthenticated())
	assert.Contains(t, rt.out.String(), "[Signed out]")
	assert.Len(t, reader.lines, 1)
}

func TestChatSession_UnknownSlashCommand(t *testing.T) {
	rt := newTestRuntime(t, "")
	rt.signIn(t, "")

	s, reader := newChat(t, rt, "/frobnicate", "/status")
	require.NoError(t, s.Run(t.Context()))

	assert.Contains(t, rt.out.String(), "unknown command: /frobnicate")
	assert.Contains(t, rt.out.String(), "Session Status")
	assert.Equal(t, 3, reader.prompts)
}

func TestChatSession_Export(t *testing.T) {
	rt := newTestRuntime(t, "")
	rt.signIn(t, "")
	dir := t.TempDir()

	s, _ := newChat(t, rt, "/export json "+dir, "/export pdf "+dir)
	require.NoError(t, s.Run(t.Context()))

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hello Alice!")
	assert.Contains(t, rt.out.String(), "unsupported export format: pdf")
}

// =============================================================================
// AUTH TESTS (auth.go)
// =============================================================================

func TestHandleLogin_Prompts(t *testing.T) {
	rt := newTestRuntime(t, "Bob\nsk-or-abc\n\n")

	require.NoError(t, HandleLogin(Args{}, rt.Runtime))

	creds, ok := rt.Sessions.Current()
	require.True(t, ok)
	assert.Equal(t, "Bob", creds.DisplayName)
	assert.Equal(t, "sk-or-abc", creds.APIKey)
	assert.Equal(t, session.DefaultEndpointURL, creds.EndpointURL)
	assert.Contains(t, rt.out.String(), "Signed in as Bob")
}

func TestHandleLogin_FlagsAndEnvKey(t *testing.T) {
	rt := newTestRuntime(t, "")
	t.Setenv(session.EnvAPIKey, "sk-or-env")

	args := Args{Raw: []string{"--name", "Carol", "--endpoint", "http://localhost:1234/v1/"}}
	require.NoError(t, HandleLogin(args, rt.Runtime))

	creds, ok := rt.Sessions.Current()
	require.True(t, ok)
	assert.Equal(t, "Carol", creds.DisplayName)
	assert.Equal(t, "sk-or-env", creds.APIKey)
	assert.Equal(t, "http://localhost:1234/v1", creds.EndpointURL)
}

func TestHandleLogin_MissingKey(t *testing.T) {
	rt := newTestRuntime(t, "Bob\n   \n\n")

	err := HandleLogin(Args{}, rt.Runtime)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please enter your name and API key.")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.False(t, rt.Sessions.IsAuthenticated())
}

func TestHandleLogin_AlreadySignedIn(t *testing.T) {
	rt := newTestRuntime(t, "")
	rt.signIn(t, "")

	err := HandleLogin(Args{}, rt.Runtime)
	assert.ErrorIs(t, err, session.ErrAlreadyAuthenticated)
}

func TestHandleLogout(t *testing.T) {
	rt := newTestRuntime(t, "")

	require.NoError(t, HandleLogout(Args{}, rt.Runtime))
	assert.Contains(t, rt.out.String(), "Not signed in")

	rt.signIn(t, "")
	rt.out.Reset()
	require.NoError(t, HandleLogout(Args{}, rt.Runtime))
	assert.Contains(t, rt.out.String(), "Signed out")
	assert.False(t, rt.Sessions.IsAuthenticated())
}

func TestHandleStatus_JSON(t *testing.T) {
	rt := newTestRuntime(t, "")
	rt.signIn(t, "")

	require.NoError(t, HandleStatus(Args{JSON: true}, rt.Runtime))

	var resp struct {
		Data StatusData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rt.out.Bytes(), &resp))
	assert.True(t, resp.Data.SignedIn)
	assert.Equal(t, "Alice", resp.Data.Name)
	assert.NotContains(t, rt.out.String(), "sk-or-test")
	assert.Equal(t, "TechFlow Solutions", resp.Data.Company)
	assert.Equal(t, 4, resp.Data.Projects)
	assert.Greater(t, resp.Data.ContextTokens, 0)
}

func TestHandleStatus_Text(t *testing.T) {
	rt := newTestRuntime(t, "")
	require.NoError(t, HandleStatus(Args{}, rt.Runtime))
	assert.Contains(t, rt.out.String(), "run 'analyst login'")
}

// =============================================================================
// DATASET TESTS (dataset.go)
// =============================================================================

func TestHandleDataset_Table(t *testing.T) {
	rt := newTestRuntime(t, "")
	require.NoError(t, HandleDataset(Args{}, rt.Runtime))

	out := rt.out.String()
	assert.Contains(t, out, "TechFlow Solutions")
	assert.Contains(t, out, "PRJ-001")
	assert.Contains(t, out, "Project Apollo")
	assert.Contains(t, out, "$150,000")
	assert.Contains(t, out, "Totals:")
	assert.Contains(t, out, "System context:")
}

func TestHandleDataset_Project(t *testing.T) {
	rt := newTestRuntime(t, "")
	require.NoError(t, HandleDataset(Args{Subcommand: "prj-001"}, rt.Runtime))
	assert.Contains(t, rt.out.String(), "Remaining:")
	assert.Contains(t, rt.out.String(), "$105,000")

	err := HandleDataset(Args{Subcommand: "PRJ-999"}, rt.Runtime)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "PRJ-999", nf.ID)
}

func TestHandleDataset_JSON(t *testing.T) {
	rt := newTestRuntime(t, "")
	require.NoError(t, HandleDataset(Args{JSON: true}, rt.Runtime))

	var ds struct {
		CompanyName string            `json:"company_name"`
		Projects    []json.RawMessage `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rt.out.Bytes(), &ds))
	assert.Equal(t, "TechFlow Solutions", ds.CompanyName)
	assert.Len(t, ds.Projects, 4)
}

func TestHandleDataset_Summary(t *testing.T) {
	_, args := Parse([]string{"--json", "dataset", "--summary"})
	assert.Empty(t, args.Subcommand)

	rt := newTestRuntime(t, "")
	require.NoError(t, HandleDataset(args, rt.Runtime))

	var resp struct {
		Data DatasetData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rt.out.Bytes(), &resp))
	assert.Equal(t, "TechFlow Solutions", resp.Data.CompanyName)
	assert.Equal(t, 4, resp.Data.Projects)
	assert.Greater(t, resp.Data.TotalBudget, resp.Data.TotalSpent)
}

// =============================================================================
// MODELS TESTS (models.go)
// =============================================================================

func TestHandleModels(t *testing.T) {
	g := newGateway(t, http.StatusOK, okReply)
	rt := newTestRuntime(t, "")
	rt.signIn(t, g.endpoint())

	require.NoError(t, HandleModels(Args{}, rt.Runtime))
	out := rt.out.String()
	assert.Contains(t, out, "openai/gpt-4o-mini")
	assert.Contains(t, out, "128k ctx")
	assert.Contains(t, out, "free")

	rt.out.Reset()
	require.NoError(t, HandleModels(Args{Raw: []string{"llama"}, Quiet: true}, rt.Runtime))
	assert.NotContains(t, rt.out.String(), "gpt-4o-mini")
	assert.Contains(t, rt.out.String(), "meta/llama-free")
}

// =============================================================================
// CONFIG TESTS (config.go)
// =============================================================================

func TestHandleConfig_GetSet(t *testing.T) {
	rt := newTestRuntime(t, "")

	require.NoError(t, HandleConfig(Args{Subcommand: "set", ConfigKey: "conversation.history_window", ConfigVal: "20"}, rt.Runtime))
	assert.Equal(t, 20, rt.Config.Conversation.HistoryWindow)

	path, err := config.ConfigPathTOML()
	require.NoError(t, err)
	saved, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 20, saved.Conversation.HistoryWindow)

	rt.out.Reset()
	require.NoError(t, HandleConfig(Args{Subcommand: "get", ConfigKey: "conversation.history_window"}, rt.Runtime))
	assert.Equal(t, "20\n", rt.out.String())
}

func TestHandleConfig_SetRejectsInvalid(t *testing.T) {
	rt := newTestRuntime(t, "")

	err := HandleConfig(Args{Subcommand: "set", ConfigKey: "conversation.history_window", ConfigVal: "0"}, rt.Runtime)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Equal(t, 10, rt.Config.Conversation.HistoryWindow)

	err = HandleConfig(Args{Subcommand: "set", ConfigKey: "no.such.key", ConfigVal: "1"}, rt.Runtime)
	assert.Error(t, err)
}

func TestHandleConfig_Init(t *testing.T) {
	rt := newTestRuntime(t, "")

	require.NoError(t, HandleConfig(Args{Subcommand: "init"}, rt.Runtime))
	path, err := config.ConfigPathTOML()
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	err = HandleConfig(Args{Subcommand: "init"}, rt.Runtime)
	assert.ErrorIs(t, err, os.ErrExist)

	require.NoError(t, HandleConfig(Args{Subcommand: "init", Raw: []string{"init", "--force"}}, rt.Runtime))
}

func TestHandleConfig_ShowAndUnknown(t *testing.T) {
	rt := newTestRuntime(t, "")

	require.NoError(t, HandleConfig(Args{}, rt.Runtime))
	assert.Contains(t, rt.out.String(), "history_window = 10")

	err := HandleConfig(Args{Subcommand: "frob"}, rt.Runtime)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}
