package cli

import (
	"github.com/spf13/cobra"

	"github.com/mindhaven/therapy-memory/internal/store"
)

func init() {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "List a user's sessions, most recent first",
		Run:   runSessions,
	}
	sessions.Flags().Int64P("user", "u", 0, "User ID (required)")
	sessions.Flags().IntP("limit", "l", 10, "Max results")
	sessions.MarkFlagRequired("user")

	closeCmd := &cobra.Command{
		Use:   "close [session-id]",
		Short: "Close a session (idempotent)",
		Args:  cobra.ExactArgs(1),
		Run:   runClose,
	}

	threads := &cobra.Command{
		Use:   "threads [session-id]",
		Short: "List a session's unresolved threads",
		Args:  cobra.ExactArgs(1),
		Run:   runThreads,
	}

	newThread := &cobra.Command{
		Use:   "thread [session-id] [topic]",
		Short: "Open a thread within a session",
		Args:  cobra.ExactArgs(2),
		Run:   runNewThread,
	}
	newThread.Flags().String("type", "main", "Thread type: main, tangent, emotional_processing, goal_setting")
	newThread.Flags().Int("intensity", 0, "Emotional intensity 0-100")

	resolve := &cobra.Command{
		Use:   "resolve [thread-id]",
		Short: "Resolve a thread, optionally recording an insight",
		Args:  cobra.ExactArgs(1),
		Run:   runResolve,
	}
	resolve.Flags().StringP("resolution", "r", "", "Resolution note appended to the thread's insights")

	RootCmd.AddCommand(sessions, closeCmd, threads, newThread, resolve)
}

func runSessions(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	limit, _ := cmd.Flags().GetInt("limit")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	history, err := m.Continuity().SessionHistory(cmd.Context(), userID, limit)
	if err != nil {
		exitErr("sessions", err)
	}
	printJSON(history)
}

func runClose(cmd *cobra.Command, args []string) {
	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := m.Continuity().CloseSession(cmd.Context(), args[0]); err != nil {
		exitErr("close", err)
	}
	printJSON(map[string]string{"closed": args[0]})
}

func runThreads(cmd *cobra.Command, args []string) {
	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	threads, err := m.Continuity().ActiveThreads(cmd.Context(), args[0])
	if err != nil {
		exitErr("threads", err)
	}
	printJSON(threads)
}

func runNewThread(cmd *cobra.Command, args []string) {
	threadType, _ := cmd.Flags().GetString("type")
	intensity, _ := cmd.Flags().GetInt("intensity")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	thread, err := m.Continuity().CreateThread(cmd.Context(), store.CreateThreadParams{
		SessionID:          args[0],
		Topic:              args[1],
		ThreadType:         threadType,
		EmotionalIntensity: intensity,
	})
	if err != nil {
		exitErr("thread", err)
	}
	printJSON(thread)
}

func runResolve(cmd *cobra.Command, args []string) {
	resolution, _ := cmd.Flags().GetString("resolution")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := m.Continuity().ResolveThread(cmd.Context(), args[0], resolution); err != nil {
		exitErr("resolve", err)
	}
	printJSON(map[string]string{"resolved": args[0]})
}
