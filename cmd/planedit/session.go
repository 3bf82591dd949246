package main

import (
	"fmt"
	"log"
	"os"

	"floorplan-editor/internal/editor/plan"
	"floorplan-editor/internal/editor/serializer"
	"floorplan-editor/internal/editor/session"
	"floorplan-editor/internal/editor/syncer"
	"floorplan-editor/internal/editor/viewport"

	"github.com/spf13/cobra"
)

var (
	sessionOut string
	sessionSVG string
	sessionPNG string
)

var sessionCmd = &cobra.Command{
	Use:   "session <script.yaml>",
	Short: "Replay a scripted editing session",
	Long: `Replays pointer, keyboard and form events from a YAML script through the
editing session, syncing every mutation with the render service, and prints the
resulting floor plan source.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		script, err := loadScript(args[0])
		if err != nil {
			return err
		}
		if script.Scale <= 0 {
			script.Scale = cfg.EditorZoom
		}
		events, err := script.Events()
		if err != nil {
			return err
		}
		mapper, err := script.mapper()
		if err != nil {
			return err
		}

		ed := session.New(plan.New(), mapper, syncer.New(newClient()), session.Options{
			LiveDrag:   script.LiveDrag,
			AutoSuffix: script.AutoSuffix,
		})

		feed := make(chan session.Event)
		go func() {
			defer close(feed)
			for _, ev := range events {
				select {
				case feed <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()

		if err := ed.Run(ctx, feed); err != nil {
			return err
		}
		if err := ed.Settle(ctx); err != nil {
			return err
		}

		for _, n := range ed.Notices() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Level, n.Message)
		}
		log.Printf("[EDITOR] session finished: %d elements, selected %q", ed.Plan().Len(), ed.Selected())

		text := serializer.SerializeElements(ed.Plan().Elements())
		if sessionOut != "" {
			if err := os.WriteFile(sessionOut, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write source: %w", err)
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), text)
		}

		if sessionSVG != "" {
			body := ed.Display().Body
			if body == "" {
				return fmt.Errorf("no rendered document to export")
			}
			if err := os.WriteFile(sessionSVG, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write svg: %w", err)
			}
		}
		if sessionPNG != "" {
			r, ok := mapper.(*viewport.Raster)
			if !ok {
				r = viewport.NewRaster(script.Scale)
			}
			if err := writePNG(sessionPNG, r, ed.Plan().Elements(), ed.Selected()); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.Flags().StringVarP(&sessionOut, "out", "o", "", "Write the resulting source to a file instead of stdout")
	sessionCmd.Flags().StringVar(&sessionSVG, "svg", "", "Export the last rendered document")
	sessionCmd.Flags().StringVar(&sessionPNG, "png", "", "Export a raster drawing of the final model")
}
