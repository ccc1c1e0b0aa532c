package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfg "github.com/maastricht-university/emotion-ensemble/config"
	"github.com/maastricht-university/emotion-ensemble/metrics"
	"github.com/maastricht-university/emotion-ensemble/orchestrator"
)

const undetermined = "Unable to determine"

var output string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify one input with the ensemble",
}

func init() {
	predictCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json, yaml")

	predictCmd.AddCommand(
		&cobra.Command{
			Use:   "text <sentence...>",
			Short: "Classify a sentence",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPredict(cmd, func(p *orchestrator.Pipeline) (*orchestrator.Result, error) {
					return p.Predict(cmd.Context(), orchestrator.Input{Modality: cfg.Text, Text: strings.Join(args, " ")})
				})
			},
		},
		filePredictCmd(cfg.Audio, "Classify an audio clip (wav/mp3/m4a)"),
		filePredictCmd(cfg.Video, "Classify a video clip"),
		&cobra.Command{
			Use:   "speech <file>",
			Short: "Transcribe an audio clip and classify the transcript",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				return runPredict(cmd, func(p *orchestrator.Pipeline) (*orchestrator.Result, error) {
					return p.PredictSpeech(cmd.Context(), filepath.Base(args[0]), data)
				})
			},
		},
	)
}

func filePredictCmd(m cfg.Modality, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(m) + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runPredict(cmd, func(p *orchestrator.Pipeline) (*orchestrator.Result, error) {
				return p.Predict(cmd.Context(), orchestrator.Input{Modality: m, Filename: filepath.Base(args[0]), Data: data})
			})
		},
	}
}

func runPredict(cmd *cobra.Command, run func(*orchestrator.Pipeline) (*orchestrator.Result, error)) error {
	conf, log, err := setup()
	if err != nil {
		return err
	}
	p, err := orchestrator.NewPipeline(conf,
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(metrics.NewCollector(prometheus.NewRegistry())))
	if err != nil {
		return err
	}
	res, err := run(p)
	if err != nil {
		return err
	}
	p.Record(res)
	return render(cmd.OutOrStdout(), res, output)
}

func render(w io.Writer, res *orchestrator.Result, format string) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(res)
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if res.Transcript != "" {
		fmt.Fprintf(w, "Transcript: %s\n\n", res.Transcript)
	}
	fmt.Fprintln(w, "Individual Model Predictions:")
	for _, m := range res.Decision.PerModel {
		if m.Failed() {
			fmt.Fprintf(w, " - %s: error: %s\n", m.ModelID, m.Err)
			continue
		}
		fmt.Fprintf(w, " - %s: %s\n", m.ModelID, m.Label)
	}
	fmt.Fprintf(w, "\nFinal Ensemble Prediction: %s\n", res.Decision.Label(undetermined))
	if res.Music != nil {
		fmt.Fprintf(w, "Music: %s (%s)\n", res.Music.Description, strings.Join(res.Music.Genres, ", "))
	}
	return nil
}
