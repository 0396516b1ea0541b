package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/flowgallery/internal/domain/catalog"
	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/gallery"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/GriffinCanCode/flowgallery/internal/flowstore"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/config"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/logging"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/server"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// serveFlags override values loaded from the environment
type serveFlags struct {
	port        string
	host        string
	dev         bool
	logLevel    string
	noRateLimit bool
}

func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("host") {
		cfg.Server.Host = f.host
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = f.dev
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if f.noRateLimit {
		cfg.RateLimit.Enabled = false
	}
}

// storeFlags override the flow store settings
type storeFlags struct {
	url        string
	templateID string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.url, "flow-store-url", "", "flow store base URL (env FLOW_STORE_URL)")
	cmd.PersistentFlags().StringVar(&f.templateID, "template-id", "", "flow store id of the Business Analyst template (env BA_TEMPLATE_ID)")
}

func (f *storeFlags) apply(cfg *config.Config) {
	if f.url != "" {
		cfg.FlowStore.URL = f.url
	}
	if f.templateID != "" {
		cfg.FlowStore.TemplateID = f.templateID
	}
}

func newRootCmd() *cobra.Command {
	var (
		serve serveFlags
		store storeFlags
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flow gallery HTTP server",
		Long: `Run the flow gallery HTTP server.

Configuration is read from the environment (PORT, HOST, LOG_LEVEL,
FLOW_STORE_URL, FLOW_STORE_API_KEY, BA_TEMPLATE_ID, ...). Flags override it.
The flow store API key is only read from the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			serve.apply(cmd, cfg)
			store.apply(cfg)
			return runServer(cmd.Context(), cfg)
		},
	}
	flags := serveCmd.Flags()
	flags.StringVarP(&serve.port, "port", "p", "8000", "server port")
	flags.StringVar(&serve.host, "host", "0.0.0.0", "server host")
	flags.BoolVar(&serve.dev, "dev", false, "development mode (colored logs, debug level)")
	flags.StringVar(&serve.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&serve.noRateLimit, "no-rate-limit", false, "disable per-client rate limiting")

	root := &cobra.Command{
		Use:          "flowgallery",
		Short:        "Flow template gallery and SDLC components backend",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(serveCmd, args)
		},
	}
	store.register(root)
	root.AddCommand(serveCmd, newTemplatesCmd(&store))
	return root
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errChan:
		closeErr := srv.Close()
		return errors.Join(err, closeErr)
	}
}

func newTemplatesCmd(store *storeFlags) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the template gallery",
	}
	cmd.PersistentFlags().BoolVar(&remote, "remote", false, "refresh the Business Analyst template from the flow store first")

	listCmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List templates as JSON",
		Long: `List template summaries as JSON, grouped by category.

Examples:
  # Every category
  flowgallery templates list

  # One category, with the Business Analyst template from the flow store
  flowgallery templates list sdlc --remote`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gal, err := loadGallery(cmd.Context(), store, remote)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return writeJSON(cmd.OutOrStdout(), gal.Categories())
			}
			for _, category := range gal.Categories() {
				if category.ID == args[0] {
					return writeJSON(cmd.OutOrStdout(), category.Templates)
				}
			}
			return fmt.Errorf("category %q not found", args[0])
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <category> <id>",
		Short: "Print a template as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gal, err := loadGallery(cmd.Context(), store, remote)
			if err != nil {
				return err
			}
			tpl, ok := gal.Template(args[0], args[1])
			if !ok {
				return fmt.Errorf("template %s/%s not found", args[0], args[1])
			}
			return writeJSON(cmd.OutOrStdout(), tpl)
		},
	}

	cmd.AddCommand(listCmd, getCmd)
	return cmd
}

// loadGallery builds a gallery over the embedded catalog. With remote set the
// Business Analyst template is fetched synchronously before returning.
func loadGallery(ctx context.Context, store *storeFlags, remote bool) (*gallery.Gallery, error) {
	cfg := config.LoadOrDefault()
	store.apply(cfg)

	logger := logging.NewNop()
	if remote {
		l, err := logging.New(logging.Config{Level: "warn", OutputPaths: []string{"stderr"}})
		if err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	reg := registry.New()
	if seeded := catalog.Seed(reg, catalog.FS(), logger.Logger); seeded.Loaded == 0 {
		return nil, errors.New("no templates could be loaded from the catalog")
	}

	client := flowstore.New(flowstore.Config{
		BaseURL: cfg.FlowStore.URL,
		APIKey:  cfg.FlowStore.APIKey,
		Timeout: cfg.FlowStore.Timeout,
		Retries: cfg.FlowStore.Retries,
	}, flowstore.WithLogger(logger.Logger))
	gal := gallery.New(reg, client, flows.NewManager(),
		gallery.WithLogger(logger.Logger),
		gallery.WithTemplateID(cfg.FlowStore.TemplateID))

	if remote {
		if !client.Enabled() {
			return nil, errors.New("--remote needs FLOW_STORE_URL and FLOW_STORE_API_KEY")
		}
		if ctx == nil {
			ctx = context.Background()
		}
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.FlowStore.Timeout*time.Duration(cfg.FlowStore.Retries+1))
		defer cancel()
		gal.Initialize(fetchCtx)
	}
	return gal, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
