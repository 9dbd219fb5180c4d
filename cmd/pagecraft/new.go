package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/pagecraft"
	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/scaffold"
)

func newNewCommand() *cobra.Command {
	var (
		template string
		kind     string
		title    string
		printDoc bool
	)
	cmd := &cobra.Command{
		Use:   "new <slug>",
		Short: "Create a document, blank or from a template",
		Long: fmt.Sprintf(`Create a document in the site database (DATABASE_PATH) and print the
address to edit it. Templates: %s.

Examples:
  pagecraft new links --template bio
  pagecraft new spring-sale --kind landing --template landing --title "Spring sale"
  pagecraft new weekly --kind email --template newsletter --print > weekly.json`,
			strings.Join(scaffold.Names(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := pagecraft.Slugify(args[0])
			if title == "" {
				title = args[0]
			}
			if kind == "" && template == "" {
				kind = string(builder.DocumentLink)
			}
			doc, err := scaffold.New(builder.DocumentKind(kind), title, slug, template, nil)
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return err
			}
			if printDoc {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			store, err := pagecraft.NewStore(pagecraft.EnvOr("DATABASE_PATH", "data/pagecraft.db"))
			if err != nil {
				return err
			}
			defer store.Close()
			doc.OwnerID = pagecraft.DefaultOwner
			saved, err := store.SaveDocument(context.Background(), doc)
			if err != nil {
				return err
			}
			siteURL := pagecraft.EnvOr("SITE_URL", "http://localhost:3000")
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s document %q\n", saved.Kind, saved.Slug)
			fmt.Fprintf(cmd.OutOrStdout(), "  Edit: %s\n", pagecraft.BuildURL(siteURL, "admin", "documents", saved.ID, "edit"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "start from a template")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "document kind: link, landing, email or form (default: the template's, else link)")
	cmd.Flags().StringVar(&title, "title", "", "document title (default: the slug)")
	cmd.Flags().BoolVar(&printDoc, "print", false, "print the document JSON instead of saving it")
	return cmd
}
