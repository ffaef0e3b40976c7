package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hearthpoints/internal/config"
	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/service"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hearthctl",
	Short: "家庭积分引擎运维工具",
	Long:  "hearthctl 直接操作积分数据库，用于历史数据迁移、账本巡检和人工修正。",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := db.Init(cfg.DatabasePath); err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(adjustTotalCmd)
	rootCmd.AddCommand(snapshotCmd)

	migrateCmd.Flags().Uint("household", 0, "家庭ID（必填）")
	migrateCmd.Flags().Uint("habit", 0, "只迁移单个习惯")
	migrateCmd.Flags().Uint("member", 0, "执行人成员ID，写入回填记录的归属字段")

	ledgerCmd.Flags().Uint("household", 0, "家庭ID（必填）")
	ledgerCmd.Flags().Uint("member", 0, "成员ID，省略时查看家庭汇总行")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "回填历史打卡日期为积分账本条目",
	Long: `把习惯的历史完成日期重放为不可变的打卡记录，并把历史积分补记到终身总分。
重放是幂等的：中断后重新执行即可续传，不会产生重复积分。`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	householdID, _ := cmd.Flags().GetUint("household")
	habitID, _ := cmd.Flags().GetUint("habit")
	memberID, _ := cmd.Flags().GetUint("member")
	if householdID == 0 && habitID == 0 {
		return fmt.Errorf("--household 或 --habit 至少提供一个")
	}

	cfg := config.Load()
	migrations := service.NewMigrationService(db.DB).WithBatchSize(cfg.MigrationBatchSize)
	actor := service.MemberRef(memberID)

	var results []service.MigrationResult
	if habitID != 0 {
		res, err := migrations.Migrate(habitID, actor)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			return err
		}
	} else {
		var err error
		results, err = migrations.MigrateAll(householdID, actor)
		if err != nil {
			printMigrationResults(results)
			return err
		}
	}

	printMigrationResults(results)
	return nil
}

func printMigrationResults(results []service.MigrationResult) {
	for _, res := range results {
		if res.Skipped {
			fmt.Fprintf(os.Stdout, "跳过 #%d %s：%s\n", res.HabitID, res.Title, res.Reason)
			continue
		}
		fmt.Fprintf(os.Stdout, "迁移 #%d %s：%d 条记录，补记 %d 分\n",
			res.HabitID, res.Title, res.SubmissionsCreated, res.PointsBackfilled)
	}
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "查看积分账本",
	RunE:  runLedger,
}

func runLedger(cmd *cobra.Command, args []string) error {
	householdID, _ := cmd.Flags().GetUint("household")
	memberID, _ := cmd.Flags().GetUint("member")
	if householdID == 0 {
		return fmt.Errorf("--household 必填")
	}

	ledger, err := service.NewLedgerService(db.DB).Get(householdID, memberID)
	if err != nil {
		return err
	}

	owner := "家庭汇总"
	if memberID != db.AggregateMemberID {
		owner = fmt.Sprintf("成员 %d", memberID)
	}
	fmt.Fprintf(os.Stdout, "%s：今日 %d 分，本周 %d 分，累计 %d 分\n",
		owner, ledger.Daily, ledger.Weekly, ledger.Total)
	return nil
}

var adjustTotalCmd = &cobra.Command{
	Use:   "adjust-total HABIT_ID TOTAL",
	Short: "改写习惯的累计完成次数",
	Long:  "直接改写累计完成次数。只影响习惯自身的统计，不回写任何积分账本。",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdjustTotal,
}

func runAdjustTotal(cmd *cobra.Command, args []string) error {
	var habitID uint
	var total int
	if _, err := fmt.Sscanf(args[0], "%d", &habitID); err != nil {
		return fmt.Errorf("invalid habit id %q", args[0])
	}
	if _, err := fmt.Sscanf(args[1], "%d", &total); err != nil {
		return fmt.Errorf("invalid total %q", args[1])
	}

	habit, err := service.NewCorrectionService(db.DB).AdjustLifetimeTotal(habitID, total)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "#%d %s 累计次数已改为 %d\n", habit.ID, habit.Title, habit.TotalCount)
	return nil
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "立即写入一次账本快照",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := service.NewLedgerService(db.DB).SnapshotAll(time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "快照完成，共 %d 行\n", rows)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
