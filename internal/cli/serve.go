package cli

import (
	"errors"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/saferunner/saferunner/internal/cli/runner"
	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/middleware"
	"github.com/saferunner/saferunner/internal/server"
	"github.com/saferunner/saferunner/internal/telegram"
)

var errNoWebhookURL = errors.New("webhook mode needs a public URL - pass --webhook-url or set WEBHOOK_URL")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot behind a webhook endpoint",
	Long: `Start an HTTP server and receive updates as Telegram webhooks.

Requires a public HTTPS URL that Telegram can reach. The webhook is
registered on startup and requests are checked against the configured
secret token, if any.`,
	Example: `  # Serve on the configured listen address
  saferunner serve --webhook-url https://bot.example.com

  # Custom listen address
  saferunner serve --webhook-url https://bot.example.com --addr :9000`,
	RunE: runners.Bot().Wrap(runServe),
}

func init() {
	f := serveCmd.Flags()
	f.StringP("addr", "a", "", "Listen address (default from config, :8080)")
	f.String("webhook-url", "", "Public base URL Telegram should deliver to")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	addr := flags.String("addr")
	webhookURL := flags.String("webhook-url")
	if err := flags.Err(); err != nil {
		return err
	}

	serveCfg := ctx.Config
	if addr != "" {
		serveCfg.ListenAddr = addr
	}
	if webhookURL != "" {
		serveCfg.WebhookURL = webhookURL
	}
	if serveCfg.WebhookURL == "" {
		return errNoWebhookURL
	}

	lock, err := lockState(serveCfg.StateFile)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	gw, err := telegram.New(serveCfg)
	if err != nil {
		return err
	}

	if err := gw.RegisterWebhook(); err != nil {
		gw.Close()
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(serveCfg.WebhookPath, gw.WebhookHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	limiter := middleware.NewRateLimiter(nil)

	logging.Info("Webhook server starting",
		logging.String("addr", serveCfg.ListenAddr),
		logging.String("path", serveCfg.WebhookPath))

	gs := server.NewGracefulServer(
		&http.Server{
			Addr:     serveCfg.ListenAddr,
			Handler:  limiter.Middleware(mux),
			ErrorLog: log.New(logging.NewWriterAdapter(), "", 0),
		},
		&server.GracefulServerOptions{
			BeforeStop:   gw.Close,
			ShutdownHook: limiter.Stop,
		},
	)
	return gs.ListenAndServe()
}
