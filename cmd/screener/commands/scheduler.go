package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/output"
	"github.com/wonny/screener/internal/scheduler"
	"github.com/wonny/screener/internal/scheduler/jobs"
	"github.com/wonny/screener/internal/store"
	"github.com/wonny/screener/pkg/database"
	"github.com/wonny/screener/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "일일 발행 스케줄러",
	Long: `screens YAML의 scheduler.jobs 를 cron으로 실행합니다.
각 작업은 스크린 결과를 out 폴더/Redis(활성 시)/PostgreSQL(DATABASE_URL 설정 시)에 발행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler list
  go run ./cmd/screener scheduler run daily-publish`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행 (완료까지 대기)",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers one PublishJob per configured job spec.
// 반환된 cleanup 은 DB 연결을 닫는다.
func initScheduler(ctx context.Context, a *app) (*scheduler.Scheduler, func(), error) {
	base, err := a.params()
	if err != nil {
		return nil, nil, err
	}

	var repo contracts.ResultRepository
	cleanup := func() {}
	if a.cfg.Database.Enabled() {
		db, err := database.New(a.cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo = store.NewRepository(db.Pool)
		cleanup = db.Close
	}

	sink := output.MultiSink{
		output.NewFileSink(a.screens.Output.Dir),
		output.NewRedisSink(a.redis, a.cfg.Redis.Namespace, redis.TTLWeekly),
	}

	sched := scheduler.New(a.log, a.cfg.Location())
	for _, spec := range a.screens.Scheduler.Jobs {
		job := jobs.NewPublishJob(spec, base, a.screens.Output, a.engine, sink, repo, a.log)
		if err := sched.AddJob(job); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return sched, cleanup, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	sched, cleanup, err := initScheduler(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Fprintln(os.Stderr, "Scheduler started. Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Fprintf(os.Stderr, "  - %s (next: %s)\n", name, sched.NextRun(name).Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop")

	<-cmd.Context().Done()

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Registered jobs:")
	for _, spec := range a.screens.Scheduler.Jobs {
		fmt.Fprintf(out, "  - %-20s %-18s %s top%d [%s]\n",
			spec.Name, spec.Schedule, spec.Market, spec.Top, strings.Join(spec.Screens, ", "))
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	sched, cleanup, err := initScheduler(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunNow(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[OK] job %s completed\n", args[0])
	return nil
}
