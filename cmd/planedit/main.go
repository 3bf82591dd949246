package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"floorplan-editor/internal/common/config"
	"floorplan-editor/internal/editor/client"

	"github.com/spf13/cobra"
)

// ============================================================
// Floor plan editor CLI
// ============================================================

var (
	cfg       = config.Load()
	renderURL string
	timeout   int
)

var rootCmd = &cobra.Command{
	Use:   "planedit",
	Short: "Floor plan editor",
	Long: `planedit drives the floor plan editing core against a render service:
format plan sources, replay scripted editing sessions and export renders.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&renderURL, "render-url", cfg.RenderURL, "Base URL of the render service")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", cfg.RenderTimeout, "Render service timeout in seconds")
}

func newClient() *client.Client {
	return client.New(renderURL, time.Duration(timeout)*time.Second)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
