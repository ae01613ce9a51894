package creativity

import (
	"fmt"
	"strings"
)

// Technique divergent thinking exercise used for a surge
type Technique string

const (
	DivergentThinking    Technique = "divergent_thinking"
	RandomStimulation    Technique = "random_stimulation"
	ConstraintRemoval    Technique = "constraint_removal"
	MetaphorThinking     Technique = "metaphor_thinking"
	WhatIfScenarios      Technique = "what_if_scenarios"
	AssumptionReversal   Technique = "assumption_reversal"
	CreativeCombinations Technique = "creative_combinations"
	EmotionalCatalyst    Technique = "emotional_catalyst"
)

var techniqueOrder = []Technique{
	DivergentThinking, RandomStimulation, ConstraintRemoval, MetaphorThinking,
	WhatIfScenarios, AssumptionReversal, CreativeCombinations, EmotionalCatalyst,
}

// Intensities accepted by a surge request
var Intensities = []string{"low", "medium", "high", "extreme"}

// TechniqueInfo describes one technique
type TechniqueInfo struct {
	Name            Technique `json:"name"`
	Description     string    `json:"description"`
	BestFor         string    `json:"best_for"`
	IntensityLevels []string  `json:"intensity_levels"`
}

// Techniques lists every technique in a fixed order
func Techniques() []TechniqueInfo {
	out := make([]TechniqueInfo, 0, len(techniqueOrder))
	for _, t := range techniqueOrder {
		def := techniques[t]
		out = append(out, TechniqueInfo{
			Name:            t,
			Description:     def.description,
			BestFor:         def.bestFor,
			IntensityLevels: Intensities,
		})
	}
	return out
}

const coachPrompt = `You are an enthusiastic and empathetic creativity coach who helps people
break through creative blocks and unleash their creative potential. Your approach is:
- Encouraging: celebrate all creative attempts and build confidence
- Supportive: provide psychological safety for creative risk-taking
- Energizing: boost creative energy and motivation
- Innovative: introduce novel techniques and perspectives
- Empathetic: understand creative struggles and provide compassionate guidance

Your goal is to help people overcome creative gridlock and experience the joy of creative flow.`

const blockPrompt = coachPrompt + `

When analyzing creative blocks:
1. Be deeply empathetic and understanding
2. Normalize the experience of creative blocks
3. Provide specific, actionable strategies
4. Offer hope and encouragement
5. Focus on breakthrough rather than breakdown`

var styleAdditions = map[string]string{
	"playful":    "Emphasize fun, whimsy and joyful exploration. Make creativity feel like play.",
	"analytical": "Balance creativity with logical structure. Provide systematic approaches.",
	"intuitive":  "Trust instincts and feelings. Embrace non-linear creative processes.",
	"balanced":   "Combine structure with freedom and logic with intuition.",
}

var intensityAdditions = map[string]string{
	"low":     "Gentle creative exploration with comfortable challenges.",
	"medium":  "Moderate creative push with balanced support.",
	"high":    "Bold creative challenges with strong encouragement.",
	"extreme": "Maximum creative intensity with maximum support.",
}

// stimulus random material drawn for one surge
type stimulus struct {
	word     string
	object   string
	concepts []string
}

// techniqueSpec prompt material for one technique
type techniqueSpec struct {
	description string
	bestFor     string
	focus       string // appended to the system prompt
	temperature float64
	maxTokens   int
	prompt      func(req SurgeRequest, s stimulus) string
}

func (t techniqueSpec) systemPrompt(req SurgeRequest) string {
	parts := []string{coachPrompt}
	if add, ok := styleAdditions[req.PreferredStyle]; ok {
		parts = append(parts, add)
	}
	if add, ok := intensityAdditions[req.Intensity]; ok {
		parts = append(parts, add)
	}
	if t.focus != "" {
		parts = append(parts, t.focus)
	}
	return strings.Join(parts, "\n\n")
}

func header(opening string, req SurgeRequest, extra ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %q\n\n", opening, req.Challenge)
	for _, e := range extra {
		b.WriteString(e)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Style: %s\nIntensity: %s\n", req.PreferredStyle, req.Intensity)
	if len(req.Context) > 0 {
		fmt.Fprintf(&b, "Context: %v\n", req.Context)
	}
	b.WriteString("\n")
	return b.String()
}

var techniques = map[Technique]techniqueSpec{
	DivergentThinking: {
		description: "Generate multiple creative solutions through expansive thinking",
		bestFor:     "Generating many ideas quickly",
		temperature: 0.9,
		maxTokens:   1500,
		prompt: func(r SurgeRequest, _ stimulus) string {
			return header("Generate creative ideas for this challenge", r,
				fmt.Sprintf("Duration: %d minutes", r.DurationMinutes),
				"Current mood: "+r.CurrentMood,
				"Energy level: "+r.EnergyLevel) +
				`Use divergent thinking to generate 8-10 diverse, creative ideas:
1. Quantity over quality - generate as many ideas as possible
2. Build on each idea to create variations
3. Combine unrelated concepts
4. Think outside conventional boundaries
5. Embrace wild and unusual ideas

For each idea, give the core idea, why it could work, how original it is
and its development potential. Be encouraging and celebrate creative thinking!`
		},
	},
	RandomStimulation: {
		description: "Use random words and objects to spark unexpected ideas",
		bestFor:     "Breaking mental patterns and routines",
		focus:       "Focus on unexpected connections and serendipitous discoveries.",
		temperature: 0.9,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, s stimulus) string {
			return header("Use random stimulation to generate ideas for", r,
				"Random word: "+s.word,
				"Random object: "+s.object) +
				`Generate 6-8 ideas by connecting these random elements to the challenge:
1. How does the random word relate to the challenge?
2. What properties of the random object could inspire solutions?
3. What metaphors or analogies emerge?
4. What unexpected connections can you make?

For each idea, explain the creative connection, how it addresses the challenge
and why it is innovative. Embrace the unexpected!`
		},
	},
	ConstraintRemoval: {
		description: "Break free from limiting assumptions and constraints",
		bestFor:     "Overcoming limiting beliefs",
		focus:       "Emphasize freedom and limitless possibilities.",
		temperature: 0.8,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, _ stimulus) string {
			return header("Generate ideas by removing constraints for", r) +
				`First identify the constraints that might be limiting thinking: assumptions,
missing resources, rules that might not be real.

Then generate 6-8 ideas by removing them:
1. What if resources were unlimited?
2. What if there were no rules or regulations?
3. What if you could start from scratch?
4. What if you could use any technology, even fictional ones?

For each idea, name the constraint removed, how the idea addresses the challenge
and how it might be adapted to reality.`
		},
	},
	MetaphorThinking: {
		description: "Use metaphors and analogies to explore new perspectives",
		bestFor:     "Finding new perspectives on familiar problems",
		focus:       "Celebrate the power of metaphor and analogy in creative thinking.",
		temperature: 0.8,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, _ stimulus) string {
			return header("Use metaphor thinking to generate ideas for", r) +
				`Explore the challenge as a living organism, a natural phenomenon, a machine,
a story or journey, and a game or sport.

Generate 6-8 ideas in total. For each, give the metaphor used, the insight it
provides and how it leads to a solution.`
		},
	},
	WhatIfScenarios: {
		description: "Explore possibilities through hypothetical scenarios",
		bestFor:     "Exploring possibilities and alternatives",
		focus:       "Encourage imagination and speculative thinking.",
		temperature: 0.8,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, _ stimulus) string {
			return header(`Generate ideas using "what if" scenarios for`, r) +
				`Create 6-8 "what if" scenarios and explore their implications:
1. What if this challenge existed in a different time period?
2. What if the scale were 100x larger or smaller?
3. What if you had to solve it with medieval technology?
4. What if you had to solve it with future technology?
5. What if the challenge were the opposite of what it is now?
6. What if everyone in the world faced this challenge?

For each scenario, give an idea that works in the new context and can be
adapted back to the original challenge.`
		},
	},
	AssumptionReversal: {
		description: "Challenge assumptions by reversing them",
		bestFor:     "Challenging conventional thinking",
		focus:       "Gently challenge assumptions while maintaining support.",
		temperature: 0.8,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, _ stimulus) string {
			return header("Generate ideas by reversing assumptions for", r) +
				`First identify key assumptions about the challenge, the people involved,
the context, the available resources and the desired outcome.

Then generate 6-8 ideas by reversing different assumptions. For each, state the
original assumption, the reversal and the idea that emerges.`
		},
	},
	CreativeCombinations: {
		description: "Combine unrelated concepts for innovative solutions",
		bestFor:     "Innovation through synthesis",
		focus:       "Celebrate synthesis and hybrid thinking.",
		temperature: 0.9,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, s stimulus) string {
			return header("Generate ideas by combining these concepts with the challenge", r,
				"Concepts to combine: "+strings.Join(s.concepts, ", ")) +
				`Create 6-8 ideas:
1. How does each concept relate to the challenge?
2. What happens when you combine two concepts?
3. How can principles from one field apply to another?
4. What hybrid solutions emerge?

For each idea, explain the combination and how it addresses the challenge.`
		},
	},
	EmotionalCatalyst: {
		description: "Use emotions as fuel for creative breakthrough",
		bestFor:     "Connecting with passion and motivation",
		focus:       "Harness emotions as powerful creative fuel.",
		temperature: 0.8,
		maxTokens:   1200,
		prompt: func(r SurgeRequest, _ stimulus) string {
			return header("Use emotional catalysts to generate ideas for", r,
				"Current mood: "+r.CurrentMood) +
				`Approach the challenge through passionate excitement, deep compassion,
curiosity, courage, joy and playfulness, and wisdom and patience.

Generate 6-8 ideas. For each, state the emotion channeled, how it changes the
perspective and the idea that emerges.`
		},
	},
}

// stimulus pools
var (
	randomWords = []string{
		"butterfly", "thunderstorm", "telescope", "whisper", "fountain",
		"rainbow", "magnet", "puzzle", "journey", "crystal", "harmony",
		"adventure", "mystery", "growth", "transformation", "innovation",
		"connection", "discovery", "rhythm", "balance", "flow", "spark",
		"bridge", "key", "doorway", "light", "shadow", "dance", "song",
	}
	randomObjects = []string{
		"paperclip", "rubber duck", "mirror", "feather", "compass",
		"prism", "magnet", "spring", "lens", "thread", "stone", "leaf",
		"shell", "bottle", "candle", "clock", "rope", "box", "umbrella",
	}
	combinationConcepts = []string{
		"ecosystem", "algorithm", "storytelling", "architecture", "music",
		"cooking", "sports", "art", "engineering", "psychology", "nature",
		"technology", "philosophy", "mathematics", "dance", "chemistry",
	}
)

var warmUps = []string{
	"List 10 unusual uses for a paperclip",
	"Describe your challenge as if you were explaining it to a 5-year-old",
	"What would your challenge look like if it were a color, sound or texture?",
	"If your challenge were a person, what would they be like?",
	"What's the most ridiculous solution you can think of? Now make it practical.",
}

var mantras = []string{
	"There are no bad ideas, only stepping stones to great ones",
	"Creativity flows through courage and curiosity",
	"Every expert was once a beginner who didn't give up",
	"Your unique perspective is your creative superpower",
	"Innovation happens when you combine the impossible with the inevitable",
}
