package core

import (
	"strconv"

	"github.com/bitswalk/kforge/src/common/output"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/kernel"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved plans",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().Int("limit", db.DefaultListLimit, "Maximum number of plans")
	historyCmd.Flags().String("version", "", "Only show plans for this kernel version")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	version, _ := cmd.Flags().GetString("version")

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Shutdown()

	repo := db.NewPlanRepository(database)
	var records []db.PlanRecord
	if version != "" {
		records, err = repo.ListByVersion(kernel.Normalize(version))
	} else {
		records, err = repo.List(limit)
	}
	if err != nil {
		return err
	}

	return render(records, func() { printRecords(records) })
}

func printRecords(records []db.PlanRecord) {
	if len(records) == 0 {
		output.PrintMessage("No saved plans.")
		return
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ID,
			r.Version,
			r.Toolchain.String(),
			string(r.LTO),
			strconv.FormatBool(r.Valid),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	output.PrintTable([]string{"ID", "VERSION", "TOOLCHAIN", "LTO", "VALID", "CREATED"}, rows)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Shutdown()

	rec, err := db.NewPlanRepository(database).Get(args[0])
	if err != nil {
		return err
	}

	return render(rec, func() {
		output.PrintRaw(rec.Config)
	})
}
