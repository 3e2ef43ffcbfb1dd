package chat

import (
	"strings"

	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/synth"
)

// Rule maps keywords to a canned reply and, optionally, a chart.
type Rule struct {
	Name     string
	Keywords []string
	Reply    string
	Chart    func(*synth.Generator) models.ChartSpec
}

// Matches reports whether any keyword occurs in the lowercased text.
func (r Rule) Matches(lower string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DefaultReply is used when no rule matches.
const DefaultReply = "I can help you explore ocean temperature, salinity and depth profiles, " +
	"or show where the floats are. Try asking about one of those."

// DefaultRules is the local responder's rule table, checked in order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "temperature",
			Keywords: []string{"temperature", "temp", "warm", "cold"},
			Reply: "Ocean temperature falls quickly through the thermocline and levels off near 2°C " +
				"below about 1500 m. Here is a typical profile.",
			Chart: (*synth.Generator).TemperatureProfile,
		},
		{
			Name:     "salinity",
			Keywords: []string{"salinity", "salt", "psu"},
			Reply: "Most open-ocean salinity lies between 34 and 36 PSU. " +
				"The histogram shows the distribution across recent observations.",
			Chart: (*synth.Generator).SalinityHistogram,
		},
		{
			Name:     "depth",
			Keywords: []string{"depth", "deep", "pressure"},
			Reply:    "Profiling floats sample down to about 2000 m. This scatter plots temperature against depth.",
			Chart:    (*synth.Generator).DepthScatter,
		},
		{
			Name:     "map",
			Keywords: []string{"map", "location", "where", "position"},
			Reply:    "Here are the latest float positions across the ocean basins.",
			Chart:    (*synth.Generator).FloatMap,
		},
		{
			Name:     "chart",
			Keywords: []string{"chart", "plot", "graph", "visuali"},
			Reply:    "Here is an overview of observation counts per region.",
			Chart:    (*synth.Generator).RegionBars,
		},
	}
}

// Responder answers locally when the chat backend is unreachable.
type Responder struct {
	rules []Rule
	gen   *synth.Generator
}

// NewResponder creates a responder using rules; nil rules means DefaultRules.
func NewResponder(gen *synth.Generator, rules []Rule) *Responder {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Responder{rules: rules, gen: gen}
}

// Respond picks the first matching rule. A matching rule yields exactly one
// chart when it has a chart generator; the default reply has none.
func (r *Responder) Respond(text string) (string, []models.ChartSpec) {
	lower := strings.ToLower(text)
	for _, rule := range r.rules {
		if !rule.Matches(lower) {
			continue
		}
		if rule.Chart == nil {
			return rule.Reply, nil
		}
		return rule.Reply, []models.ChartSpec{rule.Chart(r.gen)}
	}
	return DefaultReply, nil
}
