package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vamshikr/sure-weather/internal/weather"
)

type serviceLoader func(ctx context.Context) (*weather.Service, error)

func newQueryCommand(load serviceLoader) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the current temperature for a location once",
		Example: `  sure-weather query --latitude 40.71 --longitude -74.01
  sure-weather query --zipcode 10001 --services noaa,accuweather --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q (json or yaml)", output)
			}

			// Only flags set on the command line become query parameters, so
			// absent and empty stay distinguishable as they are over HTTP.
			query := make(map[string]string)
			for _, name := range []string{
				weather.ParamZipcode,
				weather.ParamLatitude,
				weather.ParamLongitude,
				weather.ParamServices,
			} {
				if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
					query[name] = f.Value.String()
				}
			}

			svc, err := load(cmd.Context())
			if err != nil {
				return err
			}

			body, status := svc.Handle(cmd.Context(), query)
			if err := render(cmd.OutOrStdout(), body, output); err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("request failed with status %d", status)
			}
			return nil
		},
	}

	cmd.Flags().String(weather.ParamZipcode, "", "postal code to resolve via geocoding")
	cmd.Flags().String(weather.ParamLatitude, "", "latitude in decimal degrees")
	cmd.Flags().String(weather.ParamLongitude, "", "longitude in decimal degrees")
	cmd.Flags().String(weather.ParamServices, "", "comma-separated services (default: all)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")

	return cmd
}

func render(w io.Writer, body any, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(body); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
