package discovery

import (
	"strings"

	"github.com/jonathan/interview-intel/internal/matching"
)

// Industry is a coarse hiring domain used to pick round taxonomies
type Industry string

// Industry values. IndustryUnknown is the zero value.
const (
	IndustryUnknown        Industry = ""
	IndustryTechnology     Industry = "Technology"
	IndustryFinance        Industry = "Finance"
	IndustryHealthcare     Industry = "Healthcare"
	IndustryLegal          Industry = "Legal"
	IndustryConsulting     Industry = "Consulting"
	IndustrySalesMarketing Industry = "Sales & Marketing"
	IndustryEducation      Industry = "Education"
	IndustryCreative       Industry = "Creative & Design"
	IndustryHospitality    Industry = "Hospitality"
	IndustryConstruction   Industry = "Construction"
	IndustryScience        Industry = "Science & Research"
	IndustrySocialServices Industry = "Social Services"
)

// StandardAssessmentRound is the industry-neutral round used without domain evidence
const StandardAssessmentRound = "Standard Assessment"

type industryKeywords struct {
	industry Industry
	keywords []string
}

// industryTable is scanned in order; on equal keyword counts the earlier industry wins
var industryTable = []industryKeywords{
	{IndustryTechnology, []string{
		"technology", "tech", "software", "saas", "cloud", "ai", "artificial intelligence",
		"machine learning", "cybersecurity", "semiconductor", "internet", "e commerce",
		"it services", "developer", "programming", "distributed systems", "python", "golang",
		"java", "kubernetes", "backend", "frontend", "full stack",
	}},
	{IndustryFinance, []string{
		"finance", "financial", "bank", "banking", "fintech", "accounting", "audit",
		"insurance", "investment", "trading", "hedge fund", "asset management", "payments",
		"quant", "quantitative",
	}},
	{IndustryHealthcare, []string{
		"healthcare", "health", "medical", "hospital", "clinic", "clinical", "pharmaceutical",
		"pharma", "biotech", "nursing", "nurse", "patient", "dental", "diagnostics", "cancer",
		"physician",
	}},
	{IndustryLegal, []string{
		"legal", "law", "attorney", "lawyer", "paralegal", "litigation", "compliance",
		"regulatory",
	}},
	{IndustryConsulting, []string{
		"consulting", "consultancy", "strategy", "management consulting", "advisory",
	}},
	{IndustrySalesMarketing, []string{
		"sales", "marketing", "retail", "advertising", "consumer goods", "brand",
		"market research", "account executive",
	}},
	{IndustryEducation, []string{
		"education", "edtech", "university", "college", "school", "teaching", "teacher",
		"training", "e learning", "academy",
	}},
	{IndustryCreative, []string{
		"creative", "design", "designer", "media", "production", "entertainment", "fashion",
		"studio", "agency", "film", "animation",
	}},
	{IndustryHospitality, []string{
		"hospitality", "tourism", "hotel", "travel", "restaurant", "events", "leisure",
		"aviation", "airline",
	}},
	{IndustryConstruction, []string{
		"construction", "civil", "infrastructure", "building", "real estate", "contractor",
		"trades",
	}},
	{IndustryScience, []string{
		"science", "research", "scientific", "laboratory", "physics", "biology", "chemistry",
	}},
	{IndustrySocialServices, []string{
		"non profit", "nonprofit", "ngo", "social work", "community", "public service",
		"foundation", "government", "charity",
	}},
}

// roundsByIndustry lists the round taxonomy per industry, in interview order
var roundsByIndustry = map[Industry][]string{
	IndustryTechnology:     {"Coding", "System Design", "Behavioral"},
	IndustryFinance:        {"Quantitative", "Market Knowledge", "Behavioral"},
	IndustryHealthcare:     {"Clinical Case Study", "Patient Management", "Behavioral"},
	IndustryLegal:          {"Legal Case Analysis", "Regulatory Compliance", "Behavioral"},
	IndustryConsulting:     {"Case Interview", "Problem Solving", "Behavioral"},
	IndustrySalesMarketing: {"Domain Knowledge", "Role Play", "Behavioral"},
	IndustryEducation:      {"Domain Knowledge", "Demo Lesson", "Behavioral"},
	IndustryCreative:       {"Portfolio Review", "Practical Assessment", "Behavioral"},
	IndustryHospitality:    {"Domain Knowledge", "Situational", "Behavioral"},
	IndustryConstruction:   {"Domain Knowledge", "Practical Assessment", "Behavioral"},
	IndustryScience:        {"Domain Knowledge", "Technical Presentation", "Behavioral"},
	IndustrySocialServices: {"Domain Knowledge", "Situational", "Behavioral"},
	IndustryUnknown:        {StandardAssessmentRound, "Behavioral"},
}

// technicalRoundMarkers identify software-interview round names
var technicalRoundMarkers = []string{
	"coding", "leetcode", "system design", "algorithm", "data structures", "programming",
}

// techRoleWords mark a job description as a technical role when one appears as a whole word
var techRoleWords = map[string]bool{
	"developer": true, "developers": true, "engineer": true, "engineers": true, "engineering": true,
	"software": true, "coding": true, "programmer": true, "programming": true,
	"devops": true, "sre": true, "tech": true, "data": true,
}

// nonTechRolePhrases are word pairs whose first word would otherwise read as technical
var nonTechRolePhrases = map[string]bool{
	"data entry":   true,
	"tech support": true,
}

// nonTechCompanyMarkers flag non-technical organizations by name or industry
var nonTechCompanyMarkers = []string{
	"production", "creative", "marketing", "agency", "hospital", "legal", "law", "construction",
}

// ClassifyIndustry maps free text to the industry with the most keyword hits
func ClassifyIndustry(text string) Industry {
	padded := " " + matching.Normalize(text) + " "
	if strings.TrimSpace(padded) == "" {
		return IndustryUnknown
	}

	best, bestHits := IndustryUnknown, 0
	for _, entry := range industryTable {
		hits := 0
		for _, kw := range entry.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = entry.industry, hits
		}
	}
	return best
}

// IsTechIndustry reports whether an industry label describes a technology company
func IsTechIndustry(industry string) bool {
	return ClassifyIndustry(industry) == IndustryTechnology
}

// IsKnownNonTech reports whether an industry label is classified and not technology
func IsKnownNonTech(industry string) bool {
	c := ClassifyIndustry(industry)
	return c != IndustryUnknown && c != IndustryTechnology
}

// RoundsForIndustry returns the round taxonomy for an industry label
func RoundsForIndustry(industry string) []string {
	rounds := roundsByIndustry[ClassifyIndustry(industry)]
	return append([]string(nil), rounds...)
}

// TechnicalRound reports whether a round name describes a software interview
func TechnicalRound(name string) bool {
	return containsAny(strings.ToLower(name), technicalRoundMarkers)
}

// mentionsTechnicalRounds reports whether text discusses software interview rounds
func mentionsTechnicalRounds(text string) bool {
	return containsAny(strings.ToLower(text), technicalRoundMarkers)
}

// isTechRole reports whether a job description reads as a technical role
func isTechRole(jobDescription string) bool {
	words := strings.Fields(matching.Normalize(jobDescription))
	for i, w := range words {
		if !techRoleWords[w] {
			continue
		}
		if i+1 < len(words) && nonTechRolePhrases[w+" "+words[i+1]] {
			continue
		}
		return true
	}
	return false
}

// isNonTechCompany reports whether the name or industry marks a non-technical organization
func isNonTechCompany(companyName, industry string) bool {
	padded := " " + matching.Normalize(companyName+" "+industry) + " "
	for _, marker := range nonTechCompanyMarkers {
		if strings.Contains(padded, " "+marker+" ") {
			return true
		}
	}
	return IsKnownNonTech(industry)
}

// roleForcingRisk reports whether technical rounds would be unsupported for this state:
// no job description, a non-technical industry and no evidence discussing technical rounds.
func roleForcingRisk(s PipelineState) bool {
	if s.HasJobDescription() {
		return false
	}
	if !isNonTechCompany(s.CompanyName, s.Industry) {
		return false
	}
	return !mentionsTechnicalRounds(evidenceCorpus(s.AuditedEvidence))
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
