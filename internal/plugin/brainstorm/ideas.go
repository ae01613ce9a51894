package brainstorm

import (
	"fmt"
	"sort"
	"strings"

	"hybridmcp/internal/plugin"
)

const basePrompt = `You are a deeply empathetic and encouraging brainstorming companion.
Your role is to help generate ideas in a supportive, non-judgmental environment that
fosters creativity and exploration.

Key principles:
- Empathy: understand the user's needs, constraints, and emotional state
- Encouragement: celebrate all ideas, no matter how unconventional
- Supportive reasoning: explain why ideas have potential and how they connect
- Creative expansion: build on ideas to explore new possibilities
- Thoughtful analysis: provide gentle guidance while maintaining creative freedom

Always maintain a warm, encouraging tone that makes the user feel heard and inspired.`

var intentPrompts = map[string]string{
	"exploration":        "\n\nFocus on open-ended exploration. Encourage wild ideas and unexpected connections.",
	"problem_solving":    "\n\nGuide toward practical solutions while maintaining creative thinking.",
	"creative_expansion": "\n\nPush boundaries and explore unconventional approaches. Celebrate uniqueness.",
}

var moodPrompts = map[string]string{
	"open":       "\n\nMaintain an open, receptive atmosphere that welcomes all possibilities.",
	"focused":    "\n\nProvide gentle structure while preserving creative freedom.",
	"playful":    "\n\nEmbrace fun and whimsical ideas. Make brainstorming enjoyable.",
	"analytical": "\n\nBalance creative thinking with thoughtful analysis and reasoning.",
}

func systemPrompt(intent, mood string) string {
	return basePrompt + intentPrompts[intent] + moodPrompts[mood]
}

func startPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Let's brainstorm about: %s\n\nIntent: %s\nMood: %s\n", req.Topic, req.Intent, req.Mood)
	if len(req.Constraints) > 0 {
		b.WriteString("\nPlease keep in mind these constraints:\n")
		for _, c := range req.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString(`
Please generate 5-8 diverse, creative ideas. For each idea, provide:
1. The core idea
2. Why it's interesting or valuable
3. How it connects to the topic
4. Potential for development

Be encouraging and supportive. Celebrate the creative process!
`)
	return b.String()
}

func extendPrompt(topic string, data sessionData, req Request) string {
	recent := data.Ideas
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Let's continue brainstorming about: %s\n\nWe've been exploring these recent ideas:\n", topic)
	for _, idea := range recent {
		fmt.Fprintf(&b, "- %s\n", plugin.CleanItem(idea.Idea))
	}
	fmt.Fprintf(&b, "\nCurrent themes: %s\n", strings.Join(data.Themes, ", "))
	fmt.Fprintf(&b, `
Please generate 3-5 new ideas that either:
1. Build on existing ideas
2. Explore new directions
3. Make unexpected connections
4. Challenge assumptions

Topic: %s
Intent: %s
Mood: %s

Keep the creative momentum going!
`, req.Topic, req.Intent, req.Mood)
	return b.String()
}

// parseIdeas treats every list item as an idea and the lines below it as its reasoning
func parseIdeas(content string) []Idea {
	var ideas []Idea
	var reasoning []string
	flush := func() {
		if len(ideas) > 0 && len(reasoning) > 0 {
			ideas[len(ideas)-1].Reasoning = strings.Join(reasoning, " ")
		}
		reasoning = reasoning[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case plugin.IsListItem(line):
			flush()
			ideas = append(ideas, Idea{
				Idea:            line,
				Category:        categorize(line),
				Confidence:      0.8,
				Connections:     connections(line),
				PotentialImpact: impact(line),
			})
		case len(ideas) > 0:
			reasoning = append(reasoning, line)
		}
	}
	flush()
	return ideas
}

var categories = []struct {
	name  string
	words []string
}{
	{"technology", []string{"technology", "digital", "app", "software", "ai"}},
	{"social", []string{"social", "community", "people", "collaboration"}},
	{"business", []string{"business", "market", "revenue", "profit"}},
	{"creative", []string{"creative", "art", "design", "aesthetic"}},
	{"process", []string{"process", "system", "method", "framework"}},
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func categorize(idea string) string {
	lower := strings.ToLower(idea)
	for _, c := range categories {
		if containsAny(lower, c.words...) {
			return c.name
		}
	}
	return "general"
}

func connections(idea string) []string {
	lower := strings.ToLower(idea)
	var out []string
	if containsAny(lower, "innovation", "new") {
		out = append(out, "innovation")
	}
	if containsAny(lower, "solution", "solve") {
		out = append(out, "problem-solving")
	}
	if containsAny(lower, "user", "people") {
		out = append(out, "user-centered")
	}
	if containsAny(lower, "technology", "digital") {
		out = append(out, "technology")
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func impact(idea string) string {
	lower := strings.ToLower(idea)
	switch {
	case containsAny(lower, "revolutionary", "breakthrough", "transform"):
		return "high"
	case containsAny(lower, "improve", "enhance", "optimize"):
		return "medium"
	default:
		return "developing"
	}
}

// identifyThemes returns up to five categories or connections seen more than once
func identifyThemes(ideas []Idea) []string {
	counts := make(map[string]int)
	var order []string
	bump := func(k string) {
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, idea := range ideas {
		bump(idea.Category)
		for _, c := range idea.Connections {
			bump(c)
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	themes := make([]string, 0, 5)
	for _, k := range order {
		if len(themes) == 5 {
			break
		}
		if counts[k] > 1 {
			themes = append(themes, k)
		}
	}
	return themes
}

func nextDirections(themes []string, intent string) []string {
	has := make(map[string]bool, len(themes))
	for _, t := range themes {
		has[t] = true
	}

	var out []string
	if has["technology"] {
		out = append(out, "Explore technical implementation approaches")
	}
	if has["social"] {
		out = append(out, "Consider community engagement strategies")
	}
	if has["business"] {
		out = append(out, "Develop business model variations")
	}
	if has["creative"] {
		out = append(out, "Expand artistic and design possibilities")
	}
	switch intent {
	case "exploration":
		out = append(out, "Dive deeper into unconventional approaches")
	case "problem_solving":
		out = append(out, "Prototype and test promising solutions")
	case "creative_expansion":
		out = append(out, "Combine ideas for hybrid approaches")
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

func encouragement(n int, mood string) string {
	switch mood {
	case "playful":
		return fmt.Sprintf("Wow! You've generated %d fantastic ideas! Your creative energy is contagious. Keep that playful spirit flowing!", n)
	case "focused":
		return fmt.Sprintf("Excellent work! Your %d ideas show great focus and direction. You're building something meaningful here.", n)
	case "analytical":
		return fmt.Sprintf("Impressive reasoning! Your %d ideas demonstrate thoughtful analysis. The connections you're making are insightful.", n)
	default:
		return fmt.Sprintf("Beautiful! Your %d ideas show wonderful openness to possibilities. Trust your creative instincts.", n)
	}
}

func summary(topic string, req Request, ideas int, themes []string) string {
	key := "Diverse exploration"
	if len(themes) > 0 {
		key = strings.Join(themes, ", ")
	}
	return fmt.Sprintf("Brainstorming session on %q generated %d ideas across %d themes.\n\nKey themes: %s\n\n"+
		"The session revealed strong %s thinking with a %s approach.",
		topic, ideas, len(themes), key, req.Intent, req.Mood)
}

func assessMood(mood string, ideas int) string {
	switch {
	case ideas >= 7:
		return fmt.Sprintf("Highly creative and %s - excellent idea generation!", mood)
	case ideas >= 5:
		return fmt.Sprintf("Good %s energy - solid brainstorming session", mood)
	default:
		return fmt.Sprintf("Gentle %s exploration - quality over quantity", mood)
	}
}
