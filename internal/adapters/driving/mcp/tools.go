package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/logger"
)

// QuestionsSearchInput is the input schema for the written questions
// search tool.
type QuestionsSearchInput struct {
	Query      string `json:"query,omitempty" jsonschema:"free text to search for, omit for filter-only queries"`
	DateFrom   string `json:"date_from,omitempty" jsonschema:"earliest date tabled, YYYY-MM-DD"`
	DateTo     string `json:"date_to,omitempty" jsonschema:"latest date tabled, YYYY-MM-DD"`
	House      string `json:"house,omitempty" jsonschema:"chamber, Commons or Lords"`
	Party      string `json:"party,omitempty" jsonschema:"asking member's party"`
	MemberName string `json:"member_name,omitempty" jsonschema:"asking member's name"`
	MemberID   int    `json:"member_id,omitempty" jsonschema:"asking member's id"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 100)"`
	Offset     int    `json:"offset,omitempty" jsonschema:"results to skip for pagination"`
}

// QuestionOutput is one written question result.
type QuestionOutput struct {
	URI             string  `json:"uri"`
	Score           float64 `json:"score"`
	UIN             string  `json:"uin,omitempty"`
	House           string  `json:"house,omitempty"`
	Heading         string  `json:"heading,omitempty"`
	AskingMember    string  `json:"asking_member,omitempty"`
	Party           string  `json:"party,omitempty"`
	AnsweringBody   string  `json:"answering_body,omitempty"`
	DateTabled      string  `json:"date_tabled,omitempty"`
	DateAnswered    string  `json:"date_answered,omitempty"`
	QuestionText    string  `json:"question_text,omitempty"`
	AnswerText      string  `json:"answer_text,omitempty"`
}

// QuestionsSearchOutput is the output schema for the questions tool.
type QuestionsSearchOutput struct {
	Results []QuestionOutput `json:"results"`
	Count   int              `json:"count"`
}

// ContributionsSearchInput is the input schema for the Hansard
// contributions search tool.
type ContributionsSearchInput struct {
	Query      string `json:"query,omitempty" jsonschema:"free text to search for, omit for filter-only queries"`
	DateFrom   string `json:"date_from,omitempty" jsonschema:"earliest sitting date, YYYY-MM-DD"`
	DateTo     string `json:"date_to,omitempty" jsonschema:"latest sitting date, YYYY-MM-DD"`
	House      string `json:"house,omitempty" jsonschema:"chamber, Commons or Lords"`
	MemberName string `json:"member_name,omitempty" jsonschema:"speaking member's name"`
	MemberID   int    `json:"member_id,omitempty" jsonschema:"speaking member's id"`
	DebateID   string `json:"debate_id,omitempty" jsonschema:"debate section external id to search within"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 100)"`
	Offset     int    `json:"offset,omitempty" jsonschema:"results to skip for pagination"`
}

// ContributionOutput is one debate contribution result.
type ContributionOutput struct {
	URI             string  `json:"uri"`
	Score           float64 `json:"score"`
	Member          string  `json:"member,omitempty"`
	AttributedTo    string  `json:"attributed_to,omitempty"`
	House           string  `json:"house,omitempty"`
	SittingDate     string  `json:"sitting_date,omitempty"`
	DebateSection   string  `json:"debate_section,omitempty"`
	Text            string  `json:"text,omitempty"`
	DebateURL       string  `json:"debate_url,omitempty"`
	ContributionURL string  `json:"contribution_url,omitempty"`
}

// ContributionsSearchOutput is the output schema for the contributions
// tool.
type ContributionsSearchOutput struct {
	Results []ContributionOutput `json:"results"`
	Count   int                  `json:"count"`
}

// DebatesSearchInput is the input schema for the debate discovery tool.
type DebatesSearchInput struct {
	Query    string `json:"query,omitempty" jsonschema:"free text to search for, omit for filter-only queries"`
	DateFrom string `json:"date_from,omitempty" jsonschema:"earliest sitting date, YYYY-MM-DD"`
	DateTo   string `json:"date_to,omitempty" jsonschema:"latest sitting date, YYYY-MM-DD"`
	House    string `json:"house,omitempty" jsonschema:"chamber, Commons or Lords"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of debates (default 10, max 100)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"debates to skip for pagination"`
}

// DebateOutput is one discovered debate.
type DebateOutput struct {
	DebateID      string  `json:"debate_id"`
	Title         string  `json:"title,omitempty"`
	House         string  `json:"house,omitempty"`
	SittingDate   string  `json:"sitting_date,omitempty"`
	Score         float64 `json:"score"`
	Contributions int     `json:"contributions"`
	URL           string  `json:"url,omitempty"`
}

// DebatesSearchOutput is the output schema for the debates tool.
type DebatesSearchOutput struct {
	Results []DebateOutput `json:"results"`
	Count   int            `json:"count"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Source string `json:"source" jsonschema:"record source, hansard or parliamentary-questions"`
	From   string `json:"from" jsonschema:"start of the date range, YYYY-MM-DD or relative like '3 days ago'"`
	To     string `json:"to" jsonschema:"end of the date range, YYYY-MM-DD or relative like 'today'"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_parliamentary_questions",
		Description: "Search written parliamentary questions and their answers",
	}, s.handleQuestionsSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_hansard_contributions",
		Description: "Search Hansard debate contributions",
	}, s.handleContributionsSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_debates",
		Description: "Find debates whose contributions match a query, ranked by relevance",
	}, s.handleDebatesSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Fetch, embed and index parliamentary records for a date range",
	}, s.handleIngest)
}

// handleQuestionsSearch handles the written questions search tool.
func (s *Server) handleQuestionsSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionsSearchInput,
) (*mcp.CallToolResult, QuestionsSearchOutput, error) {
	start := time.Now()
	results, err := s.ports.Search.Search(ctx, domain.SearchRequest{
		Source:     domain.SourceQuestions,
		Text:       input.Query,
		DateFrom:   input.DateFrom,
		DateTo:     input.DateTo,
		House:      input.House,
		Party:      input.Party,
		MemberName: input.MemberName,
		MemberID:   input.MemberID,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, QuestionsSearchOutput{}, err
	}
	logger.Debug("search_parliamentary_questions returned %d results in %v", len(results), time.Since(start))

	output := QuestionsSearchOutput{
		Results: make([]QuestionOutput, 0, len(results)),
		Count:   len(results),
	}
	for _, r := range results {
		if r.Question == nil {
			continue
		}
		q := QuestionOutput{
			URI:           r.URI(),
			Score:         r.Score,
			UIN:           r.Question.UIN,
			House:         r.Question.House,
			Heading:       r.Question.Heading,
			AnsweringBody: r.Question.AnsweringBodyName,
			DateTabled:    r.Question.DateTabled.Format("2006-01-02"),
			QuestionText:  r.Question.QuestionText,
			AnswerText:    r.Question.AnswerText,
		}
		if r.Question.AskingMember != nil {
			q.AskingMember = r.Question.AskingMember.Name
			q.Party = r.Question.AskingMember.Party
		}
		if r.Question.DateAnswered != nil {
			q.DateAnswered = r.Question.DateAnswered.Format("2006-01-02")
		}
		output.Results = append(output.Results, q)
	}

	return nil, output, nil
}

// handleContributionsSearch handles the Hansard contributions search tool.
func (s *Server) handleContributionsSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContributionsSearchInput,
) (*mcp.CallToolResult, ContributionsSearchOutput, error) {
	start := time.Now()
	results, err := s.ports.Search.Search(ctx, domain.SearchRequest{
		Source:     domain.SourceHansard,
		Text:       input.Query,
		DateFrom:   input.DateFrom,
		DateTo:     input.DateTo,
		House:      input.House,
		MemberName: input.MemberName,
		MemberID:   input.MemberID,
		DebateID:   input.DebateID,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, ContributionsSearchOutput{}, err
	}
	logger.Debug("search_hansard_contributions returned %d results in %v", len(results), time.Since(start))

	output := ContributionsSearchOutput{
		Results: make([]ContributionOutput, 0, len(results)),
		Count:   len(results),
	}
	for _, r := range results {
		if r.Contribution == nil {
			continue
		}
		output.Results = append(output.Results, ContributionOutput{
			URI:             r.URI(),
			Score:           r.Score,
			Member:          r.Contribution.MemberName,
			AttributedTo:    r.Contribution.AttributedTo,
			House:           r.Contribution.House,
			SittingDate:     r.Contribution.SittingDate.Format("2006-01-02"),
			DebateSection:   r.Contribution.DebateSection,
			Text:            r.Contribution.TextFull,
			DebateURL:       r.Contribution.DebateURL(),
			ContributionURL: r.Contribution.ContributionURL(),
		})
	}

	return nil, output, nil
}

// handleDebatesSearch handles the debate discovery tool.
func (s *Server) handleDebatesSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DebatesSearchInput,
) (*mcp.CallToolResult, DebatesSearchOutput, error) {
	start := time.Now()
	debates, err := s.ports.Search.SearchDebates(ctx, domain.SearchRequest{
		Text:     input.Query,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		House:    input.House,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, DebatesSearchOutput{}, err
	}
	logger.Debug("search_debates returned %d debates in %v", len(debates), time.Since(start))

	output := DebatesSearchOutput{
		Results: make([]DebateOutput, 0, len(debates)),
		Count:   len(debates),
	}
	for _, d := range debates {
		output.Results = append(output.Results, DebateOutput{
			DebateID:      d.DebateSectionExtID,
			Title:         d.Title,
			House:         d.House,
			SittingDate:   d.SittingDate.Format("2006-01-02"),
			Score:         d.Score,
			Contributions: d.Contributions,
			URL:           d.URL,
		})
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool. The run summary is returned
// directly; long ranges can take a while, so clients should set
// generous timeouts.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.Summary, error) {
	start := time.Now()
	summary, err := s.ports.Ingest.Run(ctx, domain.IngestionRequest{
		Source: domain.Source(input.Source),
		From:   input.From,
		To:     input.To,
	})
	if err != nil {
		return nil, summary, err
	}
	logger.Debug("ingest wrote %d documents in %v", summary.Written, time.Since(start))
	return nil, summary, nil
}
