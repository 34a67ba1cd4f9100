package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/output"
	"github.com/wonny/screener/internal/screenconfig"
	"github.com/wonny/screener/internal/selection"
	"github.com/wonny/screener/pkg/logger"
)

// ScreenRunner runs a named screen (selection.Engine)
type ScreenRunner interface {
	Run(ctx context.Context, name string, p selection.Params) (*contracts.ScreenResult, error)
}

// PublishJob runs the configured screens after market close and publishes
// every result to the sinks and, when configured, the result repository.
// ⭐ SSOT: 일일 결과 발행 스케줄은 이 Job에서만
type PublishJob struct {
	spec   screenconfig.JobSpec
	base   selection.Params
	outCfg screenconfig.Output
	runner ScreenRunner
	sink   output.Sink
	repo   contracts.ResultRepository
	logger *logger.Logger
}

// NewPublishJob creates a publish job. repo may be nil.
func NewPublishJob(
	spec screenconfig.JobSpec,
	base selection.Params,
	outCfg screenconfig.Output,
	runner ScreenRunner,
	sink output.Sink,
	repo contracts.ResultRepository,
	log *logger.Logger,
) *PublishJob {
	return &PublishJob{
		spec:   spec,
		base:   base,
		outCfg: outCfg,
		runner: runner,
		sink:   sink,
		repo:   repo,
		logger: log.WithField("job", spec.Name),
	}
}

// Name returns the job name
func (j *PublishJob) Name() string {
	return j.spec.Name
}

// Schedule returns the cron schedule (with seconds)
func (j *PublishJob) Schedule() string {
	return j.spec.Schedule
}

// Run executes every screen of the job. 한 스크린이 실패해도 나머지는 계속 발행하고
// 실패를 모아 반환한다 (스케줄러가 재시도).
func (j *PublishJob) Run(ctx context.Context) error {
	market, err := contracts.ParseMarket(j.spec.Market)
	if err != nil {
		return err
	}

	params := j.base
	params.Market = market
	params.Limit = j.spec.Top

	format, err := output.ParseFormat(j.outCfg.Format)
	if err != nil {
		return err
	}

	var errs []error
	for _, screen := range j.spec.Screens {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.publish(ctx, screen, params, format); err != nil {
			j.logger.WithError(err).WithField("screen", screen).Warn("Screen publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", screen, err))
		}
	}

	return errors.Join(errs...)
}

func (j *PublishJob) publish(ctx context.Context, screen string, params selection.Params, format output.Format) error {
	result, err := j.runner.Run(ctx, screen, params)
	if err != nil {
		return err
	}
	if result.Count() == 0 {
		j.logger.WithField("screen", screen).Warn("Empty screen result, nothing published")
		return nil
	}

	artifact, opts := output.Preset(output.PresetInput{
		Screen:   screen,
		Market:   params.Market,
		Top:      params.Limit,
		SortBy:   params.SortBy,
		Format:   format,
		Decimals: j.outCfg.Decimals,
		Schema:   j.outCfg.Schema,
	})

	pub, err := output.NewPublication(artifact, result, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	locations, err := j.sink.Publish(ctx, pub)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if j.repo != nil {
		if err := j.repo.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"screen":    screen,
		"as_of":     result.AsOf,
		"count":     result.Count(),
		"locations": locations,
	}).Info("Screen published")

	return nil
}
