package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered proposition sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}

		for _, slug := range reg.Slugs() {
			c, err := reg.Get(slug)
			if err != nil {
				return err
			}
			source := c.Source()
			location := source.State
			if source.Municipality != "" {
				location = fmt.Sprintf("%s/%s", source.Municipality, source.State)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-10s %-28s %s\n",
				source.Slug, source.Tier, location, source.Body)
		}
		return nil
	},
}
