package main

import (
	"fmt"
	"os"

	"floorplan-editor/internal/editor/serializer"
	"floorplan-editor/internal/renderer/dsl"

	"github.com/spf13/cobra"
)

var fmtWrite bool

var fmtCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Format a floor plan source",
	Long:  `Compiles the source locally and prints the canonical serialization. Works without the render service.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}

		elements, err := dsl.Compile(string(data))
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		text := serializer.SerializeElements(elements)

		if fmtWrite {
			return os.WriteFile(args[0], []byte(text), 0o644)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write the result back to the file")
}
