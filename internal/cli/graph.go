package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Dump a user's memory graph (active memories plus edges)",
		Run:   runGraph,
	}
	graphCmd.Flags().Int64P("user", "u", 0, "User ID (required)")
	graphCmd.MarkFlagRequired("user")

	paths := &cobra.Command{
		Use:   "paths [from-memory-id] [to-memory-id]",
		Short: "Find connection paths between two memories",
		Long:  "Breadth-first search over the undirected connection graph, capped at three edges and five paths.",
		Args:  cobra.ExactArgs(2),
		Run:   runPaths,
	}

	connections := &cobra.Command{
		Use:   "connections [memory-id]",
		Short: "List edges touching a memory, strongest first",
		Args:  cobra.ExactArgs(1),
		Run:   runConnections,
	}

	strongest := &cobra.Command{
		Use:   "strongest",
		Short: "List a user's strongest connections",
		Run:   runStrongest,
	}
	strongest.Flags().Int64P("user", "u", 0, "User ID (required)")
	strongest.Flags().IntP("limit", "l", 10, "Max results")
	strongest.MarkFlagRequired("user")

	RootCmd.AddCommand(graphCmd, paths, connections, strongest)
}

func runGraph(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	g, err := m.Graph().Graph(cmd.Context(), userID)
	if err != nil {
		exitErr("graph", err)
	}
	printJSON(g)
}

func runPaths(cmd *cobra.Command, args []string) {
	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	paths, err := m.Graph().FindPaths(cmd.Context(), args[0], args[1])
	if err != nil {
		exitErr("paths", err)
	}
	printJSON(paths)
}

func runConnections(cmd *cobra.Command, args []string) {
	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	connections, err := m.Graph().ConnectionsFor(cmd.Context(), args[0])
	if err != nil {
		exitErr("connections", err)
	}
	printJSON(connections)
}

func runStrongest(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	limit, _ := cmd.Flags().GetInt("limit")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	connections, err := m.Graph().StrongestConnections(cmd.Context(), userID, limit)
	if err != nil {
		exitErr("strongest", err)
	}
	printJSON(connections)
}
