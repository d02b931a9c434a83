package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindhaven/therapy-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "process [message]",
		Short: "Run a conversation turn through the memory pipeline",
		Long:  "Extracts memories, retrieves relevant history, suggests connections and updates the session, exactly as the chat path would.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runProcess,
	}

	cmd.Flags().Int64P("user", "u", 0, "User ID (required)")
	cmd.Flags().String("emotion", "", "Current emotional state")
	cmd.Flags().StringSlice("topics", nil, "Current topics")
	cmd.Flags().StringSlice("goals", nil, "Therapeutic goals")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runProcess(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	emotion, _ := cmd.Flags().GetString("emotion")
	topics, _ := cmd.Flags().GetStringSlice("topics")
	goals, _ := cmd.Flags().GetStringSlice("goals")
	message := strings.Join(args, " ")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := m.ProcessMessage(cmd.Context(), userID, message, &model.TurnContext{
		EmotionalState:   emotion,
		TherapeuticGoals: goals,
		CurrentTopics:    topics,
	})
	if err != nil {
		exitErr("process", err)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}
