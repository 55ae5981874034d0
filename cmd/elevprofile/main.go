package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/elevprofile/internal/bootstrap"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
)

var (
	logLevel string

	providerName   string
	preferExisting bool
	totalDistance  float64

	fromCRS string
	toCRS   string

	resampleCount int
)

var rootCmd = &cobra.Command{
	Use:   "elevprofile",
	Short: "Elevation profiles for paths",
	Long: `Fetch elevation for a path from a global or Swiss provider and print the
resulting distance/elevation profile as JSON. Input is read from a file or
stdin and may be a JSON array of {"lat","lon"} points or a GeoJSON LineString.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetupTo(os.Stderr, logLevel, "text")
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Fetch elevation and print the profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfile,
}

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert points between WGS84 and LV95",
	Long:  `Convert a JSON array of {"x","y"} points. For WGS84 x is longitude and y is latitude.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConvert,
}

var resampleCmd = &cobra.Command{
	Use:   "resample [file]",
	Short: "Resample a path to evenly spaced points",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResample,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	profileCmd.Flags().StringVarP(&providerName, "provider", "p", "", "Provider: primary|regional (default from config)")
	profileCmd.Flags().BoolVar(&preferExisting, "prefer-existing", false, "Keep elevation already present on the input")
	profileCmd.Flags().Float64Var(&totalDistance, "distance", 0, "Rescale the profile to this length in meters")

	convertCmd.Flags().StringVar(&fromCRS, "from", "wgs84", "Source reference system")
	convertCmd.Flags().StringVar(&toCRS, "to", "lv95", "Target reference system")

	resampleCmd.Flags().IntVarP(&resampleCount, "count", "n", 200, "Number of output points")

	rootCmd.AddCommand(profileCmd, convertCmd, resampleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("elevprofile-cli")
	if err != nil {
		return err
	}

	name := providerName
	if name == "" {
		name = cfg.Elevation.DefaultProvider
	}
	kind, err := domain.ParseProviderKind(name)
	if err != nil {
		return err
	}

	path, err := readPath(args)
	if err != nil {
		return err
	}

	converter, err := bootstrap.NewConverter(cfg.Converter)
	if err != nil {
		return err
	}
	svc := usecases.NewElevationService(bootstrap.NewProviders(cfg, converter), nil,
		usecases.WithExistingCoverage(cfg.Elevation.PreferExistingCoverage))

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(cfg.Server.RequestTimeout))
	defer cancel()

	res, err := svc.ResolveElevation(ctx, path, kind, preferExisting)
	if err != nil {
		return err
	}
	samples, stats := usecases.BuildProfile(res, totalDistance)

	return writeJSON(map[string]any{
		"provider": res.Provider,
		"source":   res.Source,
		"bounds":   res.Points.Bounds(),
		"profile":  samples,
		"stats":    stats,
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	from, err := domain.ParseCRS(fromCRS)
	if err != nil {
		return err
	}
	to, err := domain.ParseCRS(toCRS)
	if err != nil {
		return err
	}

	data, err := readInput(args)
	if err != nil {
		return err
	}
	var points []domain.PlanarPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("parse points: %w", err)
	}

	cfg, err := config.Load("elevprofile-cli")
	if err != nil {
		return err
	}
	converter, err := bootstrap.NewConverter(cfg.Converter)
	if err != nil {
		return err
	}

	out, err := converter.Convert(cmd.Context(), points, from, to)
	if err != nil {
		return err
	}
	return writeJSON(out)
}

func runResample(cmd *cobra.Command, args []string) error {
	path, err := readPath(args)
	if err != nil {
		return err
	}
	out, err := path.Resample(resampleCount)
	if err != nil {
		return err
	}
	return writeJSON(map[string]any{
		"points": out,
		"length": out.Length(),
	})
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
