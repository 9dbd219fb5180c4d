package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/views"
)

func newExportCommand() *cobra.Command {
	var (
		copyOut bool
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export an email document to HTML",
		Long: `Render a document snapshot (the JSON the editor's json endpoint returns) as
table-based, inline-styled HTML for email clients.

Examples:
  pagecraft export newsletter.json > newsletter.html
  pagecraft export newsletter.json --copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := builder.ParseDocument(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if doc.Kind != builder.DocumentEmail {
				return fmt.Errorf("%s is a %s document; only email documents export to HTML", args[0], doc.Kind)
			}
			html, err := views.ExportHTML(doc)
			if err != nil {
				return err
			}

			switch {
			case copyOut:
				if err := clipboard.WriteAll(html); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Copied %d bytes of HTML to the clipboard\n", len(html))
			case outPath != "":
				if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", outPath)
			default:
				fmt.Fprint(cmd.OutOrStdout(), html)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the HTML to the system clipboard")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the HTML to a file instead of stdout")
	return cmd
}
