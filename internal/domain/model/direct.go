package model

// ReportRow is one data row of a TSV report, keyed by the report's header
// columns ("Impressions", "Clicks", ...). Values stay strings; the remote
// side defines no types beyond the column names.
type ReportRow map[string]string

// CreateCampaignParams describes a new text campaign.
type CreateCampaignParams struct {
	Name             string
	StartDate        string // YYYY-MM-DD
	DailyBudgetRub   int64
	NegativeKeywords []string
}

// CreateAdGroupParams describes a new ad group within a campaign.
type CreateAdGroupParams struct {
	CampaignID int64
	Name       string
	RegionIDs  []int64
}

// CreateAdParams describes a new text ad. Title, Title2 and Text are
// truncated to the Direct API limits (56/30/81 chars) before submission.
type CreateAdParams struct {
	AdGroupID  int64
	Title      string
	Title2     string
	Text       string
	Href       string
	DisplayURL string
}

// AddKeywordsParams describes a keyword batch for an ad group. BidRub of
// zero means no explicit bid.
type AddKeywordsParams struct {
	AdGroupID int64
	Keywords  []string
	BidRub    int64
}

// UpdateBudgetParams adjusts a campaign's weekly spend limit. MaxCPCRub of
// zero leaves the bid ceiling unchanged.
type UpdateBudgetParams struct {
	CampaignID      int64
	WeeklyBudgetRub int64
	MaxCPCRub       int64
}

// StatsQuery selects a campaign performance report over a date range.
// Fields defaults to the standard performance columns when empty.
type StatsQuery struct {
	CampaignID int64
	DateFrom   string // YYYY-MM-DD
	DateTo     string // YYYY-MM-DD
	ReportType string
	Fields     []string
}
