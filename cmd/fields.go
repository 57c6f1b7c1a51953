package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phila-data/enrich-cli/internal/fields"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the requestable enrichment fields",
	Run: func(_ *cobra.Command, _ []string) {
		for _, name := range fields.Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
