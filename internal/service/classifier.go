package service

import "strings"

// Expense classifications.
const (
	ClassificationCampaign = "campaign"
	ClassificationPersonal = "personal"
	ClassificationPending  = "pending"
)

// Classification is the outcome of the ledger classifier for one expense.
type Classification struct {
	Classification string
	Confidence     float64
	Reason         string
	Category       string
	Subcategory    string
}

// classificationRule pairs a keyword list with its outcome. Rules are
// evaluated in order and the first hit wins, so both the keyword lists and
// the ordering are load-bearing: reclassifying historical records must
// reproduce the original decisions.
type classificationRule struct {
	keywords []string
	outcome  Classification
}

var classificationRules = []classificationRule{
	{
		keywords: []string{"campaign", "political", "voter", "election", "donation", "fundraising"},
		outcome: Classification{
			Classification: ClassificationCampaign,
			Confidence:     0.90,
			Reason:         "Contains campaign-related keywords",
			Category:       "campaign_operations",
			Subcategory:    "general",
		},
	},
	{
		keywords: []string{"grocery", "restaurant", "personal", "family", "vacation"},
		outcome: Classification{
			Classification: ClassificationPersonal,
			Confidence:     0.85,
			Reason:         "Contains personal-related keywords",
			Category:       "personal",
			Subcategory:    "personal_expense",
		},
	},
	{
		// Creative-materials purchases can be either personal art spending
		// or a campaign prop; they always go to manual review.
		keywords: []string{"art", "creative", "costume", "prop", "clown", "performance"},
		outcome: Classification{
			Classification: ClassificationPending,
			Confidence:     0.60,
			Reason:         "Could be art project or campaign prop - requires manual review",
			Category:       "art_project",
			Subcategory:    "creative_materials",
		},
	},
}

var defaultClassification = Classification{
	Classification: ClassificationPending,
	Confidence:     0.50,
	Reason:         "Automatic classification uncertain - manual review recommended",
	Category:       "other",
	Subcategory:    "",
}

// Classify assigns a classification to an expense from its vendor and
// description. Deterministic: same input text, same outcome.
func Classify(vendor, description string) Classification {
	vendor = strings.ToLower(vendor)
	description = strings.ToLower(description)

	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(description, kw) || strings.Contains(vendor, kw) {
				return rule.outcome
			}
		}
	}
	return defaultClassification
}
