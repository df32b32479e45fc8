package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/store"
)

// formBundle is the portable YAML form definition. Database ids are left out
// so a bundle can be imported into any installation.
type formBundle struct {
	Form          model.Form           `yaml:"form"`
	Notifications []model.Notification `yaml:"notifications,omitempty"`
	Confirmations []model.Confirmation `yaml:"confirmations,omitempty"`
}

func newFormCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Export and import form definitions",
	}
	cmd.AddCommand(newFormExportCmd(opts), newFormImportCmd(opts))
	return cmd
}

func newFormExportCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a form with its notifications and confirmations as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid form id %q", args[0])
			}
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			f, err := store.NewFormStore(db).Get(ctx, id)
			if err != nil {
				return err
			}
			b := formBundle{Form: *f}
			if b.Notifications, err = store.NewNotificationStore(db).ListByForm(ctx, id); err != nil {
				return err
			}
			if b.Confirmations, err = store.NewConfirmationStore(db).ListByForm(ctx, id); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(b); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newFormImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a form from a YAML definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var b formBundle
			if err := yaml.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			f := b.Form
			if err := store.NewFormStore(db).Create(ctx, &f); err != nil {
				return err
			}
			notifications := store.NewNotificationStore(db)
			for _, n := range b.Notifications {
				n.FormID = f.ID
				if err := notifications.Create(ctx, &n); err != nil {
					return fmt.Errorf("notification %q: %w", n.Name, err)
				}
			}
			confirmations := store.NewConfirmationStore(db)
			for _, c := range b.Confirmations {
				c.FormID = f.ID
				if err := confirmations.Create(ctx, &c); err != nil {
					return fmt.Errorf("confirmation %q: %w", c.Name, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported form %d %q with %d fields\n", f.ID, f.Name, len(f.Fields))
			return nil
		},
	}
}
