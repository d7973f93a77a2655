// Command codexcli sends prompts to the Codex CLI through the adapter.
//
// Usage:
//
//	codexcli generate "List three colors"
//	echo "Explain this diff" | codexcli stream --command review
//	codexcli check
//
// Configuration is read from codexcli.yaml (or --config) and CODEXCLI_*
// environment variables. See pkg/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rhuss/codexcli/pkg/api"
	"github.com/rhuss/codexcli/pkg/config"
	"github.com/rhuss/codexcli/pkg/debug"
	"github.com/rhuss/codexcli/pkg/provider"
	"github.com/rhuss/codexcli/pkg/provider/codexcli"
)

func main() {
	if err := run(); err != nil {
		slog.Error("codexcli failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

// app is the state shared by all commands after configuration is loaded.
type app struct {
	configPath string

	cfg      *config.Config
	provider *codexcli.Provider
	metrics  *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "codexcli",
		Short:         "Run prompts through the Codex CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config file")

	root.AddCommand(a.generateCmd())
	root.AddCommand(a.streamCmd())
	root.AddCommand(a.checkCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	a.cfg = cfg
	a.provider = codexcli.NewProvider(cfg)

	if m := cfg.Observability.Metrics; m.Enabled {
		mux := http.NewServeMux()
		mux.Handle("GET "+m.Path, promhttp.Handler())
		a.metrics = &http.Server{Addr: m.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			slog.Info("metrics server starting", "addr", m.Addr, "path", m.Path)
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}
	return nil
}

func (a *app) shutdown() error {
	if a.metrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.metrics.Shutdown(ctx)
}

// requestFlags are shared by generate and stream.
type requestFlags struct {
	system     string
	jsonMode   bool
	schemaPath string
	model      string
	command    string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.system, "system", "s", "", "System prompt")
	cmd.Flags().BoolVar(&f.jsonMode, "json", false, "Ask for a JSON response and extract it")
	cmd.Flags().StringVar(&f.schemaPath, "schema", "", "JSON schema file for --json")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model ID (default from config)")
	cmd.Flags().StringVar(&f.command, "command", "", "Use the command_settings entry with this name")
}

// prepare resolves the model and builds the request from args or stdin.
func (a *app) prepare(cmd *cobra.Command, f *requestFlags, args []string) (provider.LanguageModel, *api.CallRequest, error) {
	ctx := cmd.Context()

	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return nil, nil, err
	}

	req := &api.CallRequest{}
	if f.system != "" {
		req.Prompt = append(req.Prompt, api.TextMessage(api.RoleSystem, f.system))
	}
	req.Prompt = append(req.Prompt, api.TextMessage(api.RoleUser, prompt))

	if f.jsonMode || f.schemaPath != "" {
		req.ResponseFormat = &api.ResponseFormat{Type: api.ResponseFormatJSON}
		if f.schemaPath != "" {
			schema, err := os.ReadFile(f.schemaPath)
			if err != nil {
				return nil, nil, fmt.Errorf("reading schema: %w", err)
			}
			req.ResponseFormat.Schema = schema
		}
	}

	factory, err := a.provider.Client(ctx, provider.ClientParams{CommandName: f.command})
	if err != nil {
		return nil, nil, err
	}

	modelID := f.model
	if modelID == "" {
		modelID = a.cfg.Codex.DefaultModel
	}
	model, err := factory.LanguageModel(modelID)
	if err != nil {
		return nil, nil, err
	}
	return model, req, nil
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("no prompt given")
	}
	return prompt, nil
}

func logWarnings(warnings []api.Warning) {
	for _, w := range warnings {
		slog.Warn("ignored by Codex CLI", "type", w.Type, "setting", w.Setting, "tool", w.Tool, "details", w.Details)
	}
}

func (a *app) generateCmd() *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a complete response",
		Long:  "Generate a complete response. The prompt is read from stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, req, err := a.prepare(cmd, &f, args)
			if err != nil {
				return err
			}

			res, err := model.DoGenerate(cmd.Context(), req)
			if err != nil {
				return err
			}
			logWarnings(res.Warnings)

			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			slog.Debug("generation finished",
				"request_id", res.Response.ID,
				"session_id", res.Response.SessionID,
				"finish_reason", res.FinishReason,
				"prompt_tokens", res.Usage.PromptTokens,
				"completion_tokens", res.Usage.CompletionTokens,
			)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) streamCmd() *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "stream [prompt]",
		Short: "Stream a response as it is generated",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, req, err := a.prepare(cmd, &f, args)
			if err != nil {
				return err
			}

			sr, err := model.DoStream(cmd.Context(), req)
			if err != nil {
				return err
			}
			defer sr.Close()
			logWarnings(sr.Warnings)

			out := cmd.OutOrStdout()
			for part := range sr.Parts {
				switch part.Type {
				case api.StreamPartTextDelta:
					fmt.Fprint(out, part.Delta)
				case api.StreamPartFinish:
					fmt.Fprintln(out)
					if part.Usage != nil {
						slog.Debug("stream finished",
							"request_id", sr.Response.ID,
							"finish_reason", part.FinishReason,
							"prompt_tokens", part.Usage.PromptTokens,
							"completion_tokens", part.Usage.CompletionTokens,
						)
					}
				case api.StreamPartError:
					fmt.Fprintln(out)
					return part.Err
				}
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the Codex CLI is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.provider.Check(cmd.Context())
			if err != nil {
				return err
			}
			version := h.Version(cmd.Context())
			if version == "" {
				version = "unknown"
			}
			debugCats := strings.Join(debug.Categories(), ",")
			if debugCats == "" {
				debugCats = "off"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "binary:  %s\nversion: %s\nmodel:   %s\ndebug:   %s\n",
				h.Binary, version, a.cfg.Codex.DefaultModel, debugCats)
			return nil
		},
	}
}
