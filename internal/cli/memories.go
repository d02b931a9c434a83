package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	recent := &cobra.Command{
		Use:   "recent",
		Short: "List a user's most recent active memories",
		Run:   runRecent,
	}
	recent.Flags().Int64P("user", "u", 0, "User ID (required)")
	recent.Flags().IntP("limit", "l", 20, "Max results")
	recent.Flags().String("type", "", "Filter by memory type")
	recent.MarkFlagRequired("user")

	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a user's memories by keyword",
		Long:  "Matches query terms against memory content and emotional context. Results are touched.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}
	search.Flags().Int64P("user", "u", 0, "User ID (required)")
	search.Flags().IntP("limit", "l", 10, "Max results")
	search.MarkFlagRequired("user")

	related := &cobra.Command{
		Use:   "related [memory-id]",
		Short: "Find memories sharing tags or topics with the given one",
		Args:  cobra.ExactArgs(1),
		Run:   runRelated,
	}

	RootCmd.AddCommand(recent, search, related)
}

func runRecent(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	limit, _ := cmd.Flags().GetInt("limit")
	memoryType, _ := cmd.Flags().GetString("type")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if memoryType != "" {
		printJSON(m.Semantic().MemoriesByType(cmd.Context(), userID, memoryType))
		return
	}
	printJSON(m.Semantic().RecentMemories(cmd.Context(), userID, limit))
}

func runSearch(cmd *cobra.Command, args []string) {
	userID, _ := cmd.Flags().GetInt64("user")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printJSON(m.Semantic().SearchMemories(cmd.Context(), userID, query, limit))
}

func runRelated(cmd *cobra.Command, args []string) {
	m, s, err := openManager()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printJSON(m.Semantic().RelatedMemories(cmd.Context(), args[0]))
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	if string(b) == "null" {
		fmt.Println("[]")
		return
	}
	fmt.Println(string(b))
}
