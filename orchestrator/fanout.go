package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/emotion-ensemble/ensemble"
)

// runModels invokes every classifier concurrently and returns one result
// per classifier in the given order. A failing model fills its own slot
// and never cancels the others.
func (p *Pipeline) runModels(ctx context.Context, models []Classifier, in Input) []ensemble.ModelResult {
	results := make([]ensemble.ModelResult, len(models))
	var g errgroup.Group
	for i, m := range models {
		g.Go(func() error {
			results[i] = p.invoke(ctx, m, in)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) invoke(ctx context.Context, m Classifier, in Input) (res ensemble.ModelResult) {
	log := p.log.WithFields(logrus.Fields{"model": m.ID(), "modality": in.Modality})
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = ensemble.Failed(m.ID(), fmt.Errorf("panic: %v", r))
		}
		p.metrics.RecordModel(string(in.Modality), m.ID(), time.Since(start), res.Failed())
		if res.Failed() {
			log.WithField("err", res.Err).Warn("model produced no vote")
			return
		}
		log.WithField("label", res.Label).Debug("model voted")
	}()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Pipeline.ModelTimeout)
	defer cancel()

	label, err := m.Classify(ctx, in)
	if err != nil {
		return ensemble.Failed(m.ID(), err)
	}
	if label == "" {
		return ensemble.Failed(m.ID(), fmt.Errorf("empty label"))
	}
	return ensemble.ModelResult{ModelID: m.ID(), Label: label}
}
