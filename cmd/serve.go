package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goosewin/visionquest/internal/config"
	"github.com/goosewin/visionquest/internal/game"
	"github.com/goosewin/visionquest/internal/notify"
	"github.com/goosewin/visionquest/internal/server"
	"github.com/goosewin/visionquest/internal/vision"
	"github.com/spf13/cobra"
)

var (
	serverHost  string
	serverPort  int
	visionModel string
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the web game",
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serverHost, "host", "H", "127.0.0.1", "Host/IP to bind to")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8501, "Port number")
	serveCmd.Flags().StringVarP(&visionModel, "model", "m", vision.DefaultModel, "Vision model used to judge images")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	host := stringOrConfig(cmd, "host", serverHost, "server.host")
	port := intOrConfig(cmd, "port", serverPort, "server.port")
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d", port)
	}

	ctrl, err := newController(cmd, stringOrConfig(cmd, "model", visionModel, "game.vision_model"))
	if err != nil {
		return err
	}
	store, err := game.NewStore(config.Int("game.max_sessions"))
	if err != nil {
		return err
	}

	printServerInfo(host, port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer ctrl.Wait()
	return server.StartServer(ctx, server.Options{
		Host:          host,
		Port:          port,
		MaxBodyBytes:  int64(config.Int("server.max_upload_bytes")),
		ThumbnailSize: config.Int("game.thumbnail"),
		Controller:    ctrl,
		Store:         store,
		Logger:        logger,
	})
}

// newController wires the vision client, scoring and game-over webhook.
func newController(cmd *cobra.Command, model string) (*game.Controller, error) {
	b, err := openBackend()
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	if err := b.CheckAvailable(probeCtx); err != nil {
		logger.Warn("backend unavailable, submissions will report errors", "error", err)
	}

	opts := []game.Option{
		game.WithPoints(config.Int("game.points")),
		game.WithLogger(logger),
	}
	if webhook := strings.TrimSpace(config.String("notify.webhook")); webhook != "" {
		timeout := time.Duration(config.Int("notify.timeout_seconds")) * time.Second
		opts = append(opts, game.WithNotifyTimeout(timeout), game.WithNotify(func(ctx context.Context, summary game.Summary) error {
			return notify.NotifyGameOver(ctx, notify.GameOverOptions{
				SessionID:  summary.SessionID,
				WebhookURL: webhook,
				Score:      summary.Score,
				Challenges: summary.Challenges,
				Duration:   summary.Duration,
				Timeout:    timeout,
			})
		}))
	}
	return game.NewController(vision.NewClient(b, model), opts...), nil
}

func printServerInfo(host string, port int) {
	fmt.Printf("Starting visionquest on http://%s:%d ...\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /               - Game page")
	fmt.Println("  POST /challenge      - Next challenge")
	fmt.Println("  POST /submit         - Upload an image")
	fmt.Println("  POST /reset          - Start over")
	fmt.Println("  GET  /api/state      - Session state as JSON")
	fmt.Println("")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("")
}
