package inbox

import (
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jimmystridh/obsidian-inbox-browser/configs"
)

// Category is the work/personal verdict for an inbox item.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryMixed    Category = "mixed"
	CategoryUnclear  Category = "unclear"
)

// Classification is the scored verdict with its supporting evidence.
type Classification struct {
	Category      Category
	Confidence    float64
	Reasons       []string
	SuggestedTags []string
}

// Signal weights. Domains and keywords carry most of the decision;
// social accounts and content analysis refine it.
const (
	domainWeight  = 0.3
	keywordWeight = 0.3
	socialWeight  = 0.2
	contentWeight = 0.2
)

// classifierRules is the YAML shape of configs/classifier.yaml.
type classifierRules struct {
	WorkDomains      []string `yaml:"work_domains"`
	PersonalDomains  []string `yaml:"personal_domains"`
	WorkKeywords     []string `yaml:"work_keywords"`
	PersonalKeywords []string `yaml:"personal_keywords"`
	WorkAccounts     []string `yaml:"work_accounts"`
	PersonalAccounts []string `yaml:"personal_accounts"`
	SwedishPersonal  []string `yaml:"swedish_personal_terms"`
	SwedishWork      []string `yaml:"swedish_work_terms"`
}

// Classifier scores inbox items as work or personal using rule tables
// embedded at build time.
type Classifier struct {
	workDomains      map[string]bool
	personalDomains  map[string]bool
	workKeywords     []string
	personalKeywords []string
	workAccounts     map[string]bool
	personalAccounts map[string]bool
	swedishPersonal  []string
	swedishWork      []string
}

// NewClassifier loads the embedded rule tables.
func NewClassifier() (*Classifier, error) {
	raw, err := configs.EmbeddedConfigs.ReadFile("classifier.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded classifier rules: %w", err)
	}

	var rules classifierRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse classifier rules: %w", err)
	}
	return newClassifier(&rules), nil
}

func newClassifier(rules *classifierRules) *Classifier {
	return &Classifier{
		workDomains:      toSet(rules.WorkDomains),
		personalDomains:  toSet(rules.PersonalDomains),
		workKeywords:     lowerAll(rules.WorkKeywords),
		personalKeywords: lowerAll(rules.PersonalKeywords),
		workAccounts:     toSet(rules.WorkAccounts),
		personalAccounts: toSet(rules.PersonalAccounts),
		swedishPersonal:  lowerAll(rules.SwedishPersonal),
		swedishWork:      lowerAll(rules.SwedishWork),
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

type signal struct {
	category   Category
	confidence float64
	reasons    []string
}

// Classify scores one item. The weighted signal sum picks the
// confidence band: above 0.7 the strongest signal's category wins,
// between 0.4 and 0.7 the item is mixed, below that unclear.
func (c *Classifier) Classify(item Item) Classification {
	domain := c.classifyByDomain(item)
	keyword := c.classifyByKeywords(item)
	social := c.classifyByAccounts(item)
	content := c.classifyByContent(item)

	result := Classification{
		Confidence: domain.confidence*domainWeight +
			keyword.confidence*keywordWeight +
			social.confidence*socialWeight +
			content.confidence*contentWeight,
	}
	for _, s := range []signal{domain, keyword, social, content} {
		result.Reasons = append(result.Reasons, s.reasons...)
	}

	switch {
	case result.Confidence > 0.7:
		result.Category = firstCategory(domain.category, keyword.category, social.category, content.category)
	case result.Confidence > 0.4:
		result.Category = CategoryMixed
	default:
		result.Category = CategoryUnclear
	}

	result.SuggestedTags = c.suggestTags(item, result)
	return result
}

func firstCategory(candidates ...Category) Category {
	for _, cat := range candidates {
		if cat != "" {
			return cat
		}
	}
	return CategoryUnclear
}

func (c *Classifier) classifyByDomain(item Item) signal {
	var s signal

	for _, rawURL := range item.URLs {
		u, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

		switch {
		case c.workDomains[host] || strings.HasPrefix(host, "docs.") || strings.HasPrefix(host, "api."):
			s.category = CategoryWork
			s.confidence = max(s.confidence, 0.8)
			s.reasons = append(s.reasons, "work domain: "+host)
		case c.personalDomains[host]:
			s.category = CategoryPersonal
			s.confidence = max(s.confidence, 0.8)
			s.reasons = append(s.reasons, "personal domain: "+host)
		}

		if strings.Contains(host, "github.com") &&
			(strings.Contains(rawURL, "/issues") || strings.Contains(rawURL, "/pull")) {
			s.confidence = max(s.confidence, 0.9)
			s.reasons = append(s.reasons, "github issue or PR")
		}
	}
	return s
}

func (c *Classifier) classifyByKeywords(item Item) signal {
	var s signal
	content := strings.ToLower(item.Content)

	var workScore, personalScore int
	for _, kw := range c.workKeywords {
		if strings.Contains(content, kw) {
			workScore += keywordWeightFor(kw)
			s.reasons = append(s.reasons, "work keyword: "+kw)
		}
	}
	for _, kw := range c.personalKeywords {
		if strings.Contains(content, kw) {
			personalScore += keywordWeightFor(kw)
			s.reasons = append(s.reasons, "personal keyword: "+kw)
		}
	}

	total := workScore + personalScore
	if total == 0 {
		return s
	}

	switch {
	case float64(workScore) > float64(personalScore)*1.5:
		s.category = CategoryWork
		s.confidence = min(float64(workScore)/float64(total), 0.9)
	case float64(personalScore) > float64(workScore)*1.5:
		s.category = CategoryPersonal
		s.confidence = min(float64(personalScore)/float64(total), 0.9)
	default:
		s.category = CategoryMixed
		s.confidence = 0.5
	}
	return s
}

// keywordWeightFor gives longer, more specific keywords extra weight.
func keywordWeightFor(keyword string) int {
	if len(keyword) > 5 {
		return 2
	}
	return 1
}

func (c *Classifier) classifyByAccounts(item Item) signal {
	var s signal

	for _, rawURL := range item.URLs {
		if !strings.Contains(rawURL, "twitter.com/") && !strings.Contains(rawURL, "x.com/") {
			continue
		}
		handle := strings.ToLower(twitterHandle(rawURL))
		if handle == "" {
			continue
		}

		switch {
		case c.workAccounts[handle]:
			s.category = CategoryWork
			s.confidence = max(s.confidence, 0.7)
			s.reasons = append(s.reasons, "work account: @"+handle)
		case c.personalAccounts[handle]:
			s.category = CategoryPersonal
			s.confidence = max(s.confidence, 0.7)
			s.reasons = append(s.reasons, "personal account: @"+handle)
		}
	}
	return s
}

func twitterHandle(rawURL string) string {
	for _, host := range []string{"twitter.com/", "x.com/"} {
		if idx := strings.Index(rawURL, host); idx >= 0 {
			rest := rawURL[idx+len(host):]
			if end := strings.IndexAny(rest, "/?#"); end >= 0 {
				rest = rest[:end]
			}
			return rest
		}
	}
	return ""
}

func (c *Classifier) classifyByContent(item Item) signal {
	var s signal
	content := strings.ToLower(item.Content)

	if item.Timestamp != nil {
		hour := item.Timestamp.Hour()
		if hour >= 9 && hour <= 17 {
			s.reasons = append(s.reasons, "captured during work hours")
		} else {
			s.reasons = append(s.reasons, "captured during personal time")
		}
		s.confidence += 0.1
	}

	var personal, work int
	for _, term := range c.swedishPersonal {
		if strings.Contains(content, term) {
			personal++
		}
	}
	for _, term := range c.swedishWork {
		if strings.Contains(content, term) {
			work++
		}
	}

	switch {
	case personal > work:
		s.category = CategoryPersonal
		s.confidence = max(s.confidence, 0.6)
		s.reasons = append(s.reasons, "swedish personal content")
	case work > 0:
		s.category = CategoryWork
		s.confidence = max(s.confidence, 0.6)
		s.reasons = append(s.reasons, "swedish work content")
	}
	return s
}

func (c *Classifier) suggestTags(item Item, result Classification) []string {
	tags := []string{"#" + string(result.Category), "#" + string(item.Kind)}
	content := strings.ToLower(item.Content)

	if strings.Contains(content, "ai") || strings.Contains(content, "llm") {
		tags = append(tags, "#ai")
	}
	if strings.Contains(content, "github.com") {
		tags = append(tags, "#code")
	}
	if strings.Contains(content, "youtube.com") && strings.Contains(content, "tutorial") {
		tags = append(tags, "#learning")
	}
	if item.Timestamp != nil {
		tags = append(tags, "#"+item.Timestamp.Format("2006-01"))
	}
	if item.Kind == KindSwedishNote {
		tags = append(tags, "#svenska")
	}
	return tags
}
