package creativity

import (
	"fmt"
	"strings"

	"hybridmcp/internal/plugin"
)

const (
	maxIdeas         = 8
	maxBreakthroughs = 3
	maxPatterns      = 3
	maxNext          = 3
)

// Idea one scored idea from a surge
type Idea struct {
	Idea                 string  `json:"idea"`
	TechniqueUsed        string  `json:"technique_used"`
	CreativityScore      float64 `json:"creativity_score"`
	OriginalityScore     float64 `json:"originality_score"`
	FeasibilityScore     float64 `json:"feasibility_score"`
	Reasoning            string  `json:"reasoning"`
	DevelopmentPotential string  `json:"development_potential"` // high, focused, moderate
	EmotionalAppeal      string  `json:"emotional_appeal"`      // inspiring, nurturing, exciting, thoughtful
}

var (
	creativeWords    = []string{"unique", "innovative", "novel", "creative", "original", "unexpected", "surprising", "breakthrough", "revolutionary"}
	conventionalWord = []string{"the usual", "traditional", "standard", "conventional"}
	originalWords    = []string{"never before", "first time", "unprecedented", "groundbreaking"}
	feasibleWords    = []string{"practical", "doable", "achievable", "realistic", "implementable"}
	infeasibleWords  = []string{"impossible", "unrealistic", "fantasy", "dream"}
)

// parseIdeas turns model output into at most maxIdeas ideas. Each list item
// is an idea; the plain lines after it are its reasoning.
func parseIdeas(content string, technique Technique) []Idea {
	var ideas []Idea
	var idea string
	var reasoning []string
	flush := func() {
		if idea != "" {
			ideas = append(ideas, scoreIdea(idea, strings.Join(reasoning, " "), technique))
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if plugin.IsListItem(line) {
			flush()
			idea, reasoning = line, nil
			continue
		}
		reasoning = append(reasoning, line)
	}
	flush()

	if len(ideas) > maxIdeas {
		ideas = ideas[:maxIdeas]
	}
	return ideas
}

func scoreIdea(idea, reasoning string, technique Technique) Idea {
	lowerIdea := strings.ToLower(idea)
	all := lowerIdea + " " + strings.ToLower(reasoning)

	creativity := 0.6 + 0.05*float64(countContained(all, creativeWords))
	originality := 0.7 - 0.1*float64(countContained(lowerIdea, conventionalWord)) +
		0.1*float64(countContained(lowerIdea, originalWords))
	feasibility := 0.5 + 0.1*float64(countContained(all, feasibleWords)) -
		0.1*float64(countContained(all, infeasibleWords))

	return Idea{
		Idea:                 strings.TrimSpace(idea),
		TechniqueUsed:        string(technique),
		CreativityScore:      min(1.0, creativity),
		OriginalityScore:     clamp(originality),
		FeasibilityScore:     clamp(feasibility),
		Reasoning:            strings.TrimSpace(reasoning),
		DevelopmentPotential: developmentPotential(all),
		EmotionalAppeal:      emotionalAppeal(lowerIdea),
	}
}

func clamp(v float64) float64 {
	return min(1.0, max(0.1, v))
}

func countContained(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}

func containsAny(s string, words ...string) bool {
	return countContained(s, words) > 0
}

func developmentPotential(s string) string {
	switch {
	case containsAny(s, "scalable", "expandable", "adaptable", "flexible"):
		return "high"
	case containsAny(s, "limited", "specific", "narrow"):
		return "focused"
	default:
		return "moderate"
	}
}

func emotionalAppeal(s string) string {
	switch {
	case containsAny(s, "joy", "excitement", "love", "passion", "delight"):
		return "inspiring"
	case containsAny(s, "help", "support", "care", "comfort"):
		return "nurturing"
	case containsAny(s, "challenge", "adventure", "bold", "daring"):
		return "exciting"
	default:
		return "thoughtful"
	}
}

func average(ideas []Idea, score func(Idea) float64) float64 {
	if len(ideas) == 0 {
		return 0
	}
	var sum float64
	for _, i := range ideas {
		sum += score(i)
	}
	return sum / float64(len(ideas))
}

func creativityOf(i Idea) float64  { return i.CreativityScore }
func feasibilityOf(i Idea) float64 { return i.FeasibilityScore }

func breakthroughs(ideas []Idea, technique Technique) []string {
	var out []string
	var creative, original int
	for _, i := range ideas {
		if i.CreativityScore > 0.8 {
			creative++
		}
		if i.OriginalityScore > 0.8 {
			original++
		}
	}
	if creative > 0 {
		out = append(out, fmt.Sprintf("%d high-creativity ideas generated!", creative))
	}
	if original > 0 {
		out = append(out, fmt.Sprintf("%d highly original concepts discovered!", original))
	}
	switch technique {
	case RandomStimulation:
		out = append(out, "Unexpected connections formed through random stimulation!")
	case ConstraintRemoval:
		out = append(out, "Mental constraints broken - new possibilities unlocked!")
	case AssumptionReversal:
		out = append(out, "Assumptions challenged - fresh perspectives gained!")
	}
	if len(out) > maxBreakthroughs {
		out = out[:maxBreakthroughs]
	}
	return out
}

func patterns(ideas []Idea) []string {
	if len(ideas) == 0 {
		return []string{}
	}
	var out []string

	high := 0
	for _, i := range ideas {
		if i.DevelopmentPotential == "high" {
			high++
		}
	}
	if high > 2 {
		out = append(out, "Multiple ideas show high development potential")
	}

	// dominant appeal; ties go to the appeal seen first
	counts := make(map[string]int)
	var order []string
	for _, i := range ideas {
		if counts[i.EmotionalAppeal] == 0 {
			order = append(order, i.EmotionalAppeal)
		}
		counts[i.EmotionalAppeal]++
	}
	dominant := order[0]
	for _, appeal := range order[1:] {
		if counts[appeal] > counts[dominant] {
			dominant = appeal
		}
	}
	out = append(out, fmt.Sprintf("Ideas trend toward %s emotional appeal", dominant))

	switch feasibility := average(ideas, feasibilityOf); {
	case feasibility > 0.7:
		out = append(out, "Ideas show strong practical feasibility")
	case feasibility < 0.4:
		out = append(out, "Ideas explore highly innovative, experimental territory")
	}
	if len(out) > maxPatterns {
		out = out[:maxPatterns]
	}
	return out
}

func energyBoost(intensity string, n int) string {
	switch intensity {
	case "low":
		return fmt.Sprintf("Gentle creative energy flowing - %d ideas sprouting!", n)
	case "medium":
		return fmt.Sprintf("Creative energy building - %d ideas generated!", n)
	case "high":
		return fmt.Sprintf("High creative energy unleashed - %d ideas blazing!", n)
	case "extreme":
		return fmt.Sprintf("Explosive creative energy - %d ideas erupting!", n)
	default:
		return fmt.Sprintf("Creative energy active - %d ideas generated!", n)
	}
}

func encouragement(ideas []Idea) string {
	switch avg := average(ideas, creativityOf); {
	case avg > 0.8:
		return "Exceptional creative breakthrough! Your ideas are innovative and inspiring. You're in a powerful creative flow!"
	case avg > 0.6:
		return "Strong creative session! Your ideas show real innovation and potential. Keep this creative momentum going!"
	default:
		return "Good creative exploration! You're building creative confidence and generating valuable ideas. Every idea is a step forward!"
	}
}

func nextTechniques(current Technique, ideas []Idea) []string {
	var out []string
	switch current {
	case DivergentThinking:
		out = append(out, string(RandomStimulation), string(ConstraintRemoval))
	case RandomStimulation:
		out = append(out, string(CreativeCombinations), string(MetaphorThinking))
	case ConstraintRemoval:
		out = append(out, string(AssumptionReversal), string(WhatIfScenarios))
	default:
		out = append(out, string(DivergentThinking), string(EmotionalCatalyst))
	}
	if average(ideas, creativityOf) < 0.6 {
		out = append(out, string(RandomStimulation))
	}
	if average(ideas, feasibilityOf) < 0.5 {
		out = append(out, string(ConstraintRemoval))
	}
	if len(out) > maxNext {
		out = out[:maxNext]
	}
	return out
}

var intensityFactors = map[string]float64{
	"low":     0.6,
	"medium":  0.8,
	"high":    1.0,
	"extreme": 1.2,
}

func momentum(ideas []Idea, intensity string) float64 {
	factor, ok := intensityFactors[intensity]
	if !ok {
		factor = 0.8
	}
	count := min(1.0, float64(len(ideas))/float64(maxIdeas))
	m := (0.5 + count*0.3 + average(ideas, creativityOf)*0.2) * factor
	return min(1.0, m)
}

// BlockAnalysis diagnosis of a creative block
type BlockAnalysis struct {
	BlockType              string   `json:"block_type"`
	Symptoms               []string `json:"symptoms"`
	RootCauses             []string `json:"root_causes"`
	BreakthroughStrategies []string `json:"breakthrough_strategies"`
	EmpatheticSupport      string   `json:"empathetic_support"`
}

func analyzeBlock(content string) *BlockAnalysis {
	lower := strings.ToLower(content)

	blockType := "general"
	for _, t := range []struct{ keyword, kind string }{
		{"perfectionism", "perfectionism"},
		{"fear", "fear-based"},
		{"overwhelm", "overwhelm"},
		{"comparison", "comparison"},
	} {
		if strings.Contains(lower, t.keyword) {
			blockType = t.kind
			break
		}
	}

	support := "Your creative block is temporary. With patience and the right techniques, you can break through."
	switch {
	case strings.Contains(lower, "you're not alone"):
		support = "Remember, you're not alone in this creative challenge. Every artist faces blocks."
	case strings.Contains(lower, "normal"):
		support = "Creative blocks are a normal part of the creative process. They're signs you're pushing boundaries."
	}

	return &BlockAnalysis{
		BlockType: blockType,
		Symptoms: labeled(content, "symptom", 3,
			"Difficulty generating ideas", "Feeling stuck", "Self-doubt about creativity"),
		RootCauses: labeled(content, "cause", 3,
			"Fear of judgment", "Perfectionism", "Lack of creative confidence"),
		BreakthroughStrategies: labeled(content, "strategy", 4,
			"Start with small, low-pressure creative exercises",
			"Use random stimulation to bypass mental blocks",
			"Focus on quantity over quality initially"),
		EmpatheticSupport: support,
	}
}

// labeled collects the text after the colon of lines mentioning label,
// or returns the defaults when there are none
func labeled(content, label string, limit int, defaults ...string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		_, after, ok := strings.Cut(line, ":")
		if !ok || !strings.Contains(strings.ToLower(line), label) {
			continue
		}
		if after = strings.TrimSpace(after); after != "" {
			out = append(out, after)
		}
	}
	if len(out) == 0 {
		out = defaults
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
