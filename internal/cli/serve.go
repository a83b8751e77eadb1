package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/logging"
	"github.com/alnah/go-vidblog/internal/server"
	"github.com/alnah/go-vidblog/internal/store"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// serveOptions holds the parsed flags of the serve command.
type serveOptions struct {
	listen   string
	provider string
	model    string
	noStore  bool
}

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog generation HTTP API",
		Long: `Serve the blog generation HTTP API.

Endpoints:
  GET  /health                 liveness and uptime
  POST /api/generate           generate a post (JSON in, JSON out)
  POST /api/generate/stream    generate a post with server-sent progress events
  GET  /api/posts              list saved posts, newest first
  GET  /api/posts/{id}         fetch one saved post

rate-per-minute from the config limits both requests per client and
pipeline runs across the server. Logs are JSON on stderr.`,
		Example: `  vidblog serve
  vidblog serve --listen 127.0.0.1:9000 --provider deepseek`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := env.Config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			providerName := opts.provider
			if providerName == "" {
				providerName = cfg.Provider
			}
			provider, err := llm.ParseProvider(providerName)
			if err != nil {
				return err
			}
			apiKey := env.Getenv(provider.APIKeyEnv())
			if apiKey == "" {
				return fmt.Errorf("%s: %w", provider.APIKeyEnv(), ErrAPIKeyMissing)
			}
			model := opts.model
			if model == "" {
				model = cfg.Model
			}

			backend, err := env.BackendFactory.NewBackend(ctx, llm.Settings{Provider: provider, Model: model, APIKey: apiKey})
			if err != nil {
				return err
			}

			log := logging.New(env.Stderr, cfg.LogLevel, false)
			burst := max(cfg.RatePerMinute/10, 1)
			gen := blog.New(backend,
				blog.WithLogger(log),
				blog.WithGate(llm.NewRateGate(cfg.RatePerMinute, burst)),
				blog.WithParallelFirstDraft(cfg.ParallelSections))

			srvOpts := []server.Option{
				server.WithLogger(log),
				server.WithRateLimit(cfg.RatePerMinute, burst),
			}
			if !opts.noStore {
				srvOpts = append(srvOpts,
					server.WithStore(store.New(cfg.OutputDir)),
					server.WithMetadata(youtube.NewMetadataFetcher()))
			}

			addr := opts.listen
			if addr == "" {
				addr = cfg.Listen
			}
			log.Info().
				Str("addr", addr).
				Str("provider", provider.String()).
				Str("output_dir", cfg.OutputDir).
				Int("rate_per_minute", cfg.RatePerMinute).
				Msg("starting server")

			return env.ServerRunner.Run(ctx, addr, server.New(gen, srvOpts...))
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Generation provider (default from config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not save generated posts")

	return cmd
}
