package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the wave config JSON schema",
	Long: `Print the JSON schema a director's wave configs must follow. The same
schema is sent to generative directors as the response format.`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		data, err := wave.SchemaJSON()
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(string(data))
	},
}
