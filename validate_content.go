package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"immerseforge-site/pkg/content"
)

func newValidateContentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-content <file>",
		Short: "Check a website content file against the content schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := content.LoadFile(args[0])
			if err != nil {
				var schemaErr *content.SchemaError
				if errors.As(err, &schemaErr) {
					for _, fe := range schemaErr.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
					}
					return fmt.Errorf("%s: %d schema violations", args[0], len(schemaErr.Errors))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (etag %s, %d navigation items)\n",
				args[0], snap.ETag, len(snap.Content.Navigation))
			return nil
		},
	}
}
