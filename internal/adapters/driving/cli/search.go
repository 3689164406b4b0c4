package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openparl/parlsearch/internal/core/domain"
)

var (
	searchSource   string
	searchLimit    int
	searchOffset   int
	searchFrom     string
	searchTo       string
	searchHouse    string
	searchParty    string
	searchMember   string
	searchMemberID int
	searchDebateID string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed parliamentary records",
	Long: `Performs hybrid search over one collection, combining keyword and
semantic (vector) relevance. With no query, filters alone select
results.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSource, "source", "s", string(domain.SourceQuestions), "collection to search (parliamentary-questions or hansard)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "results to skip for pagination")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "earliest date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "latest date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchHouse, "house", "", "chamber (Commons or Lords)")
	searchCmd.Flags().StringVar(&searchParty, "party", "", "asking member's party (questions only)")
	searchCmd.Flags().StringVar(&searchMember, "member", "", "member name")
	searchCmd.Flags().IntVar(&searchMemberID, "member-id", 0, "member id")
	searchCmd.Flags().StringVar(&searchDebateID, "debate-id", "", "debate section external id (hansard only)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	req := domain.SearchRequest{
		Source:     domain.Source(searchSource),
		Text:       query,
		DateFrom:   searchFrom,
		DateTo:     searchTo,
		House:      searchHouse,
		Party:      searchParty,
		MemberName: searchMember,
		MemberID:   searchMemberID,
		DebateID:   searchDebateID,
		Limit:      searchLimit,
		Offset:     searchOffset,
	}

	results, err := searchService.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchText(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		switch {
		case r.Question != nil:
			q := r.Question
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, q.Heading, r.Score)
			cmd.Printf("      %s, tabled %s", q.House, q.DateTabled.Format("2006-01-02"))
			if q.AskingMember != nil {
				cmd.Printf(" by %s", q.AskingMember.Name)
			}
			cmd.Println()
			cmd.Printf("      Q: %s\n", snippet(q.QuestionText))
			if q.AnswerText != "" {
				cmd.Printf("      A: %s\n", snippet(q.AnswerText))
			}
		case r.Contribution != nil:
			c := r.Contribution
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.DebateSection, r.Score)
			cmd.Printf("      %s, %s, %s\n", c.MemberName, c.House, c.SittingDate.Format("2006-01-02"))
			cmd.Printf("      %s\n", snippet(c.TextFull))
			if url := c.ContributionURL(); url != "" {
				cmd.Printf("      %s\n", url)
			}
		}
		cmd.Println()
	}

	return nil
}

// snippet trims a text to one display line.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 160 {
		return s[:157] + "..."
	}
	return s
}
