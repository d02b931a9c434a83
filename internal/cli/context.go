package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Assemble the prompt-ready memory context for a user",
		Run:   runContext,
	}

	cmd.Flags().Int64P("user", "u", 0, "User ID (required)")
	cmd.Flags().StringP("message", "m", "", "Current message for relevance ranking")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	message, _ := cmd.Flags().GetString("message")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	bundle, err := m.GetComprehensiveContext(cmd.Context(), userID, message)
	if err != nil {
		exitErr("context", err)
	}

	b, _ := json.MarshalIndent(bundle, "", "  ")
	fmt.Println(string(b))
}
