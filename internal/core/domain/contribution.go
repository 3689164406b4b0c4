package domain

import (
	"fmt"
	"time"
)

// DebateParent is one level of the debate hierarchy a contribution
// belongs to, from the Hansard section trees.
type DebateParent struct {
	ID         int    `json:"Id"`
	Title      string `json:"Title"`
	ParentID   *int   `json:"ParentId"`
	ExternalID string `json:"ExternalId"`
}

// Contribution is a single spoken or written contribution within a
// Hansard debate.
type Contribution struct {
	ContributionExtID    string         `json:"ContributionExtId,omitempty"`
	ItemID               int            `json:"ItemId,omitempty"`
	MemberID             int            `json:"MemberId,omitempty"`
	MemberName           string         `json:"MemberName,omitempty"`
	AttributedTo         string         `json:"AttributedTo,omitempty"`
	House                string         `json:"House,omitempty"`
	SittingDate          time.Time      `json:"SittingDate"`
	DebateSection        string         `json:"DebateSection,omitempty"`
	DebateSectionExtID   string         `json:"DebateSectionExtId,omitempty"`
	OrderInDebateSection int            `json:"OrderInDebateSection,omitempty"`
	Text                 string         `json:"ContributionText,omitempty"`
	TextFull             string         `json:"ContributionTextFull,omitempty"`
	DebateParents        []DebateParent `json:"debate_parents,omitempty"`
	ContentHash          string         `json:"content_hash,omitempty"`
}

// Ensure Contribution implements Document.
var _ Document = (*Contribution)(nil)

// DocumentURI returns the identity key. Contributions are keyed by debate
// external id plus contribution external id. When the upstream omits the
// contribution external id, a hash of the text and its order within the
// section keeps the key stable and collision-free within the debate.
func (c *Contribution) DocumentURI() string {
	if c.ContributionExtID == "" {
		h := ContentHash(fmt.Sprintf("%s_%s_%d", c.DebateSectionExtID, c.Text, c.OrderInDebateSection))
		return fmt.Sprintf("debate_%s_contrib_%s", c.DebateSectionExtID, h)
	}
	return fmt.Sprintf("debate_%s_contrib_%s", c.DebateSectionExtID, c.ContributionExtID)
}

// EmbeddableText returns the full contribution text.
func (c *Contribution) EmbeddableText() string {
	return c.TextFull
}

// Source identifies the producing API.
func (c *Contribution) Source() Source {
	return SourceHansard
}

// DebateURL returns the public Hansard URL for the containing debate.
func (c *Contribution) DebateURL() string {
	return fmt.Sprintf("https://hansard.parliament.uk/%s/%s/debates/%s/link",
		c.House, c.SittingDate.Format("2006-01-02"), c.DebateSectionExtID)
}

// ContributionURL returns the public URL anchored at this contribution,
// or empty when the contribution has no external id.
func (c *Contribution) ContributionURL() string {
	if c.ContributionExtID == "" {
		return ""
	}
	return fmt.Sprintf("%s#contribution-%s", c.DebateURL(), c.ContributionExtID)
}
