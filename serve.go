package main

import (
	"context"
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfg "github.com/maastricht-university/emotion-ensemble/config"
	"github.com/maastricht-university/emotion-ensemble/metrics"
	"github.com/maastricht-university/emotion-ensemble/orchestrator"
	"github.com/maastricht-university/emotion-ensemble/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /predict/{text,audio,video,speech} over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, log, err := setup()
		if err != nil {
			return err
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		p, err := orchestrator.NewPipeline(conf,
			orchestrator.WithLogger(log),
			orchestrator.WithMetrics(metrics.NewCollector(reg)))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.New(p, conf.Server, log, reg).ListenAndServe(ctx, conf.Server.Addr)
	},
}

type weightsDump struct {
	Modality cfg.Modality       `yaml:"modality"`
	Models   []string           `yaml:"models"`
	Weights  map[string]float64 `yaml:"weights"`
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Validate the configuration and print the weight tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, _, err := setup()
		if err != nil {
			return err
		}
		var out []weightsDump
		for _, m := range cfg.Modalities {
			models := conf.Models(m)
			if len(models) == 0 {
				continue
			}
			d := weightsDump{Modality: m, Weights: map[string]float64{}}
			table := conf.Weights(m)
			for _, mc := range models {
				d.Models = append(d.Models, mc.ID)
				d.Weights[mc.ID] = table.Weight(mc.ID)
			}
			out = append(out, d)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(out)
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
