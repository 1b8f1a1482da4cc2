package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nivaran-be/dedup"
	"nivaran-be/generator"
	"nivaran-be/models"
	"nivaran-be/query"
)

type genOptions struct {
	count  int
	seed   int64
	anchor time.Time
	dedup  dedup.Options
	all    bool
	output string
	stats  bool
}

func flagsFrom(cmd *cobra.Command) (genOptions, error) {
	f := cmd.Flags()
	o := genOptions{}
	o.count, _ = f.GetInt("count")
	o.seed, _ = f.GetInt64("seed")
	o.all, _ = f.GetBool("all")
	o.output, _ = f.GetString("output")
	o.stats, _ = f.GetBool("stats")

	if o.count < 0 {
		return o, fmt.Errorf("count must not be negative")
	}

	o.anchor = generator.Today()
	if raw, _ := f.GetString("anchor"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return o, fmt.Errorf("invalid anchor %q: %w", raw, err)
		}
		o.anchor = t
	}

	var err error
	if o.dedup, err = dedup.OptionsFromEnv(); err != nil {
		return o, err
	}
	if path, _ := f.GetString("options"); path != "" {
		if o.dedup, err = loadOptions(path, o.dedup); err != nil {
			return o, err
		}
	}
	return o, nil
}

// loadOptions overlays the YAML file on base; keys missing from the file
// keep their base value.
func loadOptions(path string, base dedup.Options) (dedup.Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read options: %w", err)
	}
	opts := base
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return base, fmt.Errorf("parse options %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return base, fmt.Errorf("options %s: %w", path, err)
	}
	return opts, nil
}

func generate(o genOptions, out, errOut io.Writer) error {
	raw := generator.New(o.seed, o.anchor).Generate(o.count)
	groups := dedup.Cluster(raw, &o.dedup)

	var issues []models.Issue
	if o.all {
		issues = dedup.Members(groups)
	} else {
		issues = make([]models.Issue, 0, len(groups))
		for _, g := range groups {
			issues = append(issues, g.Merged())
		}
	}
	if issues == nil {
		issues = []models.Issue{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(issues); err != nil {
		return fmt.Errorf("write issues: %w", err)
	}

	if o.stats {
		m := query.ComputeMetrics(issues)
		fmt.Fprintf(errOut, "reports: %d\nclusters: %d\nwritten: %d\n", len(raw), len(groups), len(issues))
		for _, s := range models.Statuses {
			fmt.Fprintf(errOut, "  %-12s %d\n", s, m.CountsByStatus[s])
		}
		fmt.Fprintf(errOut, "avg resolution: %dh\noptions: %s\n", m.AvgResolutionHours, o.dedup)
	}
	return nil
}
