package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump a user's full record for audit",
		Long:  "Exports every memory, connection, session and thread for a user, including deactivated memories and closed sessions.",
		Run:   runExport,
	}

	cmd.Flags().Int64P("user", "u", 0, "User ID (required)")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	export, err := s.ExportUser(cmd.Context(), userID)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(export)
}
