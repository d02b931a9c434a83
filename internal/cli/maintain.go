package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	consolidate := &cobra.Command{
		Use:   "consolidate",
		Short: "Soft-merge a user's near-duplicate memories",
		Run:   runConsolidate,
	}
	consolidate.Flags().Int64P("user", "u", 0, "User ID (required)")
	consolidate.MarkFlagRequired("user")

	archive := &cobra.Command{
		Use:   "archive",
		Short: "Close a user's inactive sessions",
		Run:   runArchive,
	}
	archive.Flags().Int64P("user", "u", 0, "User ID (required)")
	archive.Flags().Int("days", 30, "Close sessions idle longer than this many days")
	archive.MarkFlagRequired("user")

	optimize := &cobra.Command{
		Use:   "optimize",
		Short: "Survey a user's connections for prune/reinforce candidates",
		Run:   runOptimize,
	}
	optimize.Flags().Int64P("user", "u", 0, "User ID (required)")
	optimize.MarkFlagRequired("user")

	RootCmd.AddCommand(consolidate, archive, optimize)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	merged, err := m.ConsolidateMemories(cmd.Context(), userID)
	if err != nil {
		exitErr("consolidate", err)
	}
	printJSON(map[string]int{"merged_groups": merged})
}

func runArchive(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	days, _ := cmd.Flags().GetInt("days")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	closed, err := m.ArchiveOldSessions(cmd.Context(), userID, days)
	if err != nil {
		exitErr("archive", err)
	}
	printJSON(map[string]int{"closed_sessions": closed})
}

func runOptimize(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	report, err := m.OptimizeMemoryConnections(cmd.Context(), userID)
	if err != nil {
		exitErr("optimize", err)
	}
	printJSON(report)
}
