package main

import (
	"fmt"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"bytegraft/internal/batch"
	"bytegraft/internal/frontend"
	"bytegraft/internal/frontend/document"
	"bytegraft/internal/frontend/markers"
	"bytegraft/internal/mapper"
	"bytegraft/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform the target classes of redirect documents and markers",
	Long: `Transform every target class declared by the given redirect documents and
by marker annotations found in the scanned classes.

Destination and source classes are looked up on the class path, a list of
directories and jars. Results are written under --out as <internal name>.class.`,
	Args: cobra.NoArgs,
	RunE: runTransform,
}

func init() {
	f := transformCmd.Flags()
	f.StringSlice("classes", nil, "Class path entries: directories or .jar files (repeatable)")
	f.StringSlice("redirects", nil, "Redirect documents, YAML or JSON (repeatable)")
	f.StringSlice("scan", nil, "Jars whose classes are scanned for markers (repeatable)")
	f.StringSlice("marker-class", nil, "Classes on the class path scanned for markers (repeatable)")
	f.String("mapping", "", "Name mapping table (YAML)")
	f.String("out", "", "Output location; empty only reports")
	f.Int("concurrency", 0, "Classes transformed at once (default: number of CPUs)")
	f.String("stub-marker", transform.DefaultEngineConfig().StubMarker, "Descriptor of the stub marker annotation")
	f.String("helper-prefix", transform.DefaultEngineConfig().HelperPrefix, "Name prefix of copied lambda helpers")
	f.Bool("log-self-redirects", false, "Log references no redirect matched")
	f.String("marker-package", markers.DefaultConfig().Package, "Internal package prefix of marker annotations")
	f.String("stage", markers.StagePreApply, "Marker application stage (PRE_APPLY or POST_APPLY)")
	f.String("method-prefix", "", "Name prefix of methods produced from markers")
	f.String("default-set", "", "Set interface used by Redirect markers without value")
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	classes, jars := classPath(cfg.GetStringSlice("classes"))

	var names mapper.NameMapper = mapper.Identity
	if path := cfg.GetString("mapping"); path != "" {
		table, err := mapper.LoadTable(path)
		if err != nil {
			return err
		}

		names = table
	}

	var producers []frontend.Producer
	for _, loc := range cfg.GetStringSlice("redirects") {
		producers = append(producers, document.NewProducer(loc))
	}

	scanned := cfg.GetStringSlice("marker-class")
	if scan := cfg.GetStringSlice("scan"); len(scan) > 0 {
		scanPath, scanJars := classPath(scan)

		list, err := jarClasses(ctx, scanJars)
		if err != nil {
			return err
		}

		producers = append(producers, markers.NewProducer(markerConfig(), scanPath, list...))
	}

	if len(scanned) > 0 {
		producers = append(producers, markers.NewProducer(markerConfig(), classes, scanned...))
	}

	if len(producers) == 0 {
		return errors.New("nothing to do: give --redirects, --scan or --marker-class")
	}

	model, err := frontend.Produce(ctx, producers...)
	if err != nil {
		return err
	}

	slogctx.Info(ctx, "Loaded model", "sets", len(model.Registry.Names()), "targets", len(model.Targets),
		"jars", len(jars))

	engine := transform.NewEngine(transform.EngineConfig{
		StubMarker:       cfg.GetString("stub-marker"),
		HelperPrefix:     cfg.GetString("helper-prefix"),
		LogSelfRedirects: cfg.GetBool("log-self-redirects"),
	}, names, classes)

	runner := batch.NewRunner(batch.Config{
		Concurrency: cfg.GetInt("concurrency"),
		OutputURL:   cfg.GetString("out"),
	}, engine, classes)

	results, runErr := runner.Run(ctx, model)

	for _, res := range results {
		for _, d := range res.Report.All() {
			slogctx.Debug(ctx, d.String())
		}

		where := res.Location
		if where == "" {
			where = "-"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d methods\t%016x\t%s\n",
			res.Target.Name, len(res.Report.Methods), res.Digest, where)
	}

	return runErr
}

func markerConfig() markers.Config {
	return markers.Config{
		Package:      cfg.GetString("marker-package"),
		Stage:        cfg.GetString("stage"),
		MethodPrefix: cfg.GetString("method-prefix"),
		DefaultSet:   cfg.GetString("default-set"),
	}
}
