package mindmap

import (
	"fmt"
	"strings"
)

const basePrompt = `You are a thoughtful and empathetic mindmapping companion.
Your role is to help create clear, meaningful concept maps that illuminate
connections and relationships between ideas.

Key principles:
- Clarity: create clear, understandable connections
- Empathy: support the user's learning and exploration journey
- Depth: provide meaningful insights into concept relationships
- Encouragement: make the mapping process enjoyable and rewarding
- Structure: organize information in logical, accessible ways

Always maintain a supportive tone that helps users feel confident in their thinking.`

var styleAdditions = map[string]string{
	"analytical": "Focus on logical relationships and systematic exploration. Prioritize accuracy and completeness.",
	"creative":   "Embrace innovative connections and unexpected relationships. Encourage unique perspectives.",
	"practical":  "Emphasize actionable insights and real-world applications. Focus on utility and implementation.",
	"balanced":   "Balance analytical rigor with creative exploration. Provide comprehensive yet accessible insights.",
}

var colorSchemes = map[string][]string{
	"analytical": {"#2E86AB", "#A23B72", "#F18F01", "#C73E1D"},
	"creative":   {"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4"},
	"practical":  {"#6C5CE7", "#A29BFE", "#74B9FF", "#0984E3"},
	"balanced":   {"#00B894", "#00CEC9", "#6C5CE7", "#A29BFE"},
}

func scheme(style string) []string {
	if s, ok := colorSchemes[style]; ok {
		return s
	}
	return colorSchemes["balanced"]
}

func colorFor(style string, level int) string {
	s := scheme(style)
	return s[level%len(s)]
}

func branchSystemPrompt(style string) string {
	if add, ok := styleAdditions[style]; ok {
		return basePrompt + "\n\n" + add
	}
	return basePrompt
}

func detailSystemPrompt(style string) string {
	return branchSystemPrompt(style) + `

When providing details:
1. Be concise but informative
2. Include practical examples
3. Focus on clarity and understanding
4. Maintain supportive tone`
}

func relationshipSystemPrompt(style string) string {
	return branchSystemPrompt(style) + `

When analyzing relationships:
1. Look for meaningful connections
2. Avoid forcing relationships where none exist
3. Use clear, simple language
4. Focus on the most important relationship`
}

func branchPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d main branches for the concept: %q\n\nThinking style: %s\n", req.Breadth, req.CentralConcept, req.ThinkingStyle)
	if len(req.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join(req.FocusAreas, ", "))
	}
	if len(req.Context) > 0 {
		fmt.Fprintf(&b, "Context: %v\n", req.Context)
	}
	b.WriteString(`
Please provide diverse, meaningful branches that explore different aspects of the central concept.
Each branch should be:
1. Clearly related to the central concept
2. Distinct from other branches
3. Rich enough to support further exploration
4. Balanced in scope and depth

Format as a simple list of branch names.`)
	return b.String()
}

func subBranchPrompt(parent, style string, count, level int) string {
	return fmt.Sprintf(`Generate %d sub-branches for: %q

Level: %d
Thinking style: %s

The sub-branches should:
1. Be more specific than the parent branch
2. Explore different aspects of the parent concept
3. Be suitable for level %d detail
4. Maintain clarity and focus

Format as a simple list.`, count, parent, level, style, level)
}

func detailPrompt(label, style string) string {
	return fmt.Sprintf(`Provide details for the concept: %q

Thinking style: %s

Please provide:
1. A brief, clear description (2-3 sentences)
2. 2-3 practical examples

Be concise but informative.`, label, style)
}

func relationshipPrompt(a, b, style string) string {
	return fmt.Sprintf(`Analyze the relationship between these concepts:
Concept A: %s
Concept B: %s

Thinking style: %s

If there's a meaningful relationship, describe it in 2-3 words (e.g., "supports", "contrasts with", "builds on").
If no meaningful relationship exists, respond with "none".`, a, b, style)
}
