// escala-sweep 批量参数扫描命令行
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paiban/escala/internal/config"
	"github.com/paiban/escala/internal/database"
	"github.com/paiban/escala/internal/dataset"
	"github.com/paiban/escala/internal/experiment"
	"github.com/paiban/escala/internal/repository"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/scheduler/solver"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:   "escala-sweep",
		Short: "月度排班参数扫描",
		Long:  `按月份批量运行随机构造与邻域搜索，输出 CSV 结果表；也可生成三班制贪心排班作为热启动。`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "日志级别 (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(greedyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		configPath string
		maxIter    int
		persist    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "执行扫描文件中定义的全部运行",
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, err := config.LoadSweepFile(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-iter") {
				sweep.MaxIterations = maxIter
				if err := config.ValidateSweep(sweep); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var store experiment.RunStore
			if persist || sweep.Persist {
				db, err := openDatabase(ctx)
				if err != nil {
					return err
				}
				defer db.Close()
				store = repository.NewRunRepository(db)
			}

			summary, err := experiment.NewRunner(sweep, store).Run(ctx)
			if err != nil {
				return err
			}
			if err := summary.Table.SaveCSV(sweep.Output); err != nil {
				return fmt.Errorf("写入结果表失败: %w", err)
			}

			logger.Info().
				Str("output", sweep.Output).
				Int("runs", summary.Runs).
				Int("persisted", summary.Persisted).
				Dur("duration", summary.Duration).
				Msg("扫描完成")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sweep.yaml", "扫描定义文件")
	cmd.Flags().IntVar(&maxIter, "max-iter", 1, "覆盖扫描文件中的最大迭代次数")
	cmd.Flags().BoolVar(&persist, "persist", false, "将每次运行写入数据库")

	return cmd
}

// openDatabase 按环境变量配置连接数据库并迁移
func openDatabase(ctx context.Context) (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

func greedyCmd() *cobra.Command {
	var (
		peoplePath string
		vacancies  []string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "greedy",
		Short: "生成三班制贪心排班",
		Long:  `输出的排班文件命名为 <月份>_schedule.json 并放在数据目录中时，run 命令开启 warm_start 后会把它作为热启动。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			people, err := dataset.LoadGreedyPeople(peoplePath)
			if err != nil {
				return err
			}

			res, err := solver.NewGreedyScheduler().Schedule(cmd.Context(), people, vacancies)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(res.Schedule, "", "  ")
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}

			logger.Info().
				Str("output", outPath).
				Int("vacancies", len(res.Schedule.Vacancies)).
				Int("rounds", res.Rounds).
				Msg("贪心排班已写入")
			return nil
		},
	}

	cmd.Flags().StringVarP(&peoplePath, "people", "p", "", "人员文件 (JSON)")
	cmd.Flags().StringSliceVar(&vacancies, "vacancies", nil, "空缺班次，例如 1M,1T,2N")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "输出文件，为空时写到标准输出")
	cmd.MarkFlagRequired("people")

	return cmd
}
