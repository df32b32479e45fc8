package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivyforms/ivyforms/internal/mailer"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

// renderData is the sample data file read by "ivyctl render". Fields keep
// their file order, which drives {{all_data}} and {{all_fields}}.
type renderData struct {
	Fields []struct {
		Key   string `yaml:"key"`
		Value any    `yaml:"value"`
		Label string `yaml:"label"`
	} `yaml:"fields"`
	General map[string]any `yaml:"general"`
}

func (d renderData) build() (placeholder.FieldData, placeholder.Labels, placeholder.GeneralData) {
	var data placeholder.FieldData
	labels := placeholder.Labels{}
	for _, f := range d.Fields {
		data.Set(f.Key, f.Value)
		if f.Label != "" {
			labels[f.Key] = f.Label
		}
	}
	return data, labels, placeholder.GeneralData(d.General)
}

func newRenderCmd() *cobra.Command {
	var (
		templatePath string
		dataPath     string
		mode         string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template against sample data",
		Long: `Render a confirmation or notification template offline.

The data file lists fields in order, plus optional general values:

  fields:
    - key: your_name
      label: Name
      value: Ann
    - key: topics
      label: Topics
      value: [Billing, Support]
  general:
    admin_email: owner@example.com

--mode confirmation (default) resolves {{key}}, {{all_data}} and {{wp.key}}.
--mode mail resolves {{key}} and {{all_fields}} the way notification emails do.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := os.ReadFile(templatePath)
			if err != nil {
				return err
			}
			var d renderData
			if dataPath != "" {
				raw, err := os.ReadFile(dataPath)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(raw, &d); err != nil {
					return fmt.Errorf("parse %s: %w", dataPath, err)
				}
			}
			data, labels, general := d.build()

			var out string
			switch mode {
			case "confirmation":
				out = placeholder.Replace(string(tmpl), data, general, labels)
			case "mail":
				out = mailer.RenderBody(string(tmpl), data)
			default:
				return fmt.Errorf("unknown mode %q (want confirmation or mail)", mode)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&templatePath, "template", "", "template file")
	cmd.Flags().StringVar(&dataPath, "data", "", "YAML sample data file")
	cmd.Flags().StringVar(&mode, "mode", "confirmation", "confirmation or mail")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
