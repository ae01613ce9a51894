package perspective

import (
	"fmt"
	"strings"
)

// ShiftType kind of perspective shift
type ShiftType string

const (
	ShiftReframe     ShiftType = "reframe"
	ShiftChallenge   ShiftType = "challenge"
	ShiftAlternative ShiftType = "alternative"
	ShiftOpposite    ShiftType = "opposite"
	ShiftStakeholder ShiftType = "stakeholder"
	ShiftTemporal    ShiftType = "temporal"
	ShiftContextual  ShiftType = "contextual"
)

// shiftOrder fixes the listing order of shift types
var shiftOrder = []ShiftType{
	ShiftReframe, ShiftChallenge, ShiftAlternative, ShiftOpposite,
	ShiftStakeholder, ShiftTemporal, ShiftContextual,
}

const basePrompt = `You are a compassionate perspective-shifting companion who helps people see
questions and problems from new angles. Your approach is:

- Empathetic: understanding the user's current perspective and emotional state
- Supportive: encouraging growth while maintaining psychological safety
- Insightful: revealing hidden assumptions and opening new possibilities
- Respectful: honoring all perspectives while gently challenging limitations
- Practical: providing actionable insights that lead to meaningful change

Your goal is to expand thinking while maintaining kindness and understanding.`

// technique prompt material for one shift type
type technique struct {
	description string
	opening     string // %q is the question
	fields      func(req Request) [][2]string
	ask         string
	closing     string
	temperature float64
	// intensity maps gentle/strong to a system prompt addition; "" is the default
	intensity map[string]string
}

func contextOr(req Request, fallback string) string {
	if len(req.Context) == 0 {
		return fallback
	}
	return fmt.Sprint(req.Context)
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var techniques = map[ShiftType]technique{
	ShiftReframe: {
		description: "Reframe questions to reveal new insights and possibilities",
		opening:     "Reframe this question to reveal new insights: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Context", contextOr(r, "General exploration")},
				{"Intensity", r.Intensity},
				{"Focus", or(r.FocusArea, "General reframing")},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Provide 3-4 thoughtful reframes that:
1. Maintain the core intent while changing perspective
2. Open new avenues for thinking
3. Challenge assumptions gently
4. Provide fresh angles for exploration`,
		closing:     "Be empathetic and supportive in your reframes.",
		temperature: 0.7,
		intensity: map[string]string{
			"gentle": "Use gentle reframing that feels safe and comfortable.",
			"strong": "Use bold reframing that challenges assumptions directly.",
			"":       "Use balanced reframing that challenges while supporting.",
		},
	},
	ShiftChallenge: {
		description: "Gently challenge assumptions to expand thinking",
		opening:     "Gently challenge the assumptions in this question: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Context", contextOr(r, "General exploration")},
				{"Intensity", r.Intensity},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Identify 3-4 assumptions and challenge them constructively:
1. What assumptions are embedded in this question?
2. How might these assumptions limit thinking?
3. What would happen if we questioned these assumptions?
4. What new possibilities emerge when we challenge them?`,
		closing:     "Be supportive and encouraging while challenging. The goal is growth, not criticism.",
		temperature: 0.6,
		intensity: map[string]string{
			"gentle": "Challenge assumptions gently with lots of support and encouragement.",
			"strong": "Challenge assumptions directly but maintain empathy and respect.",
			"":       "Challenge assumptions thoughtfully with balanced support.",
		},
	},
	ShiftAlternative: {
		description: "Generate alternative viewpoints and approaches",
		opening:     "Generate alternative perspectives for: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Context", contextOr(r, "General exploration")},
				{"Target audience", or(r.TargetAudience, "General")},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Create 3-4 alternative viewpoints:
1. How might different people approach this?
2. What are completely different ways to view this?
3. What alternative frameworks could apply?
4. What would change if we started from different assumptions?`,
		closing:     `Focus on expanding possibilities rather than finding the "right" answer.`,
		temperature: 0.8,
		intensity:   map[string]string{"": "Focus on creative alternatives and diverse viewpoints."},
	},
	ShiftOpposite: {
		description: "Explore opposite or contrarian perspectives",
		opening:     "Explore the opposite perspective for: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Context", contextOr(r, "General exploration")},
				{"Intensity", r.Intensity},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Generate 3-4 opposite or contrarian perspectives:
1. What's the opposite way to think about this?
2. What if the problem is actually the solution?
3. What if we're asking the wrong question entirely?
4. What would someone who disagrees completely say?`,
		closing:     "Be respectful and thoughtful. The goal is insight, not argument.",
		temperature: 0.7,
		intensity:   map[string]string{"": "Explore opposite viewpoints respectfully and constructively."},
	},
	ShiftStakeholder: {
		description: "Consider different stakeholder perspectives",
		opening:     "Consider this question from different stakeholder perspectives: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Context", contextOr(r, "General exploration")},
				{"Focus", or(r.FocusArea, "Key stakeholders")},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Explore 3-4 different stakeholder viewpoints:
1. Who are the key people affected by this question?
2. How would each stakeholder view this differently?
3. What would each stakeholder prioritize?
4. What concerns would each stakeholder have?`,
		closing:     "Be empathetic to all perspectives. Everyone has valid concerns and viewpoints.",
		temperature: 0.7,
		intensity:   map[string]string{"": "Consider all stakeholders with empathy and fairness."},
	},
	ShiftTemporal: {
		description: "Examine questions across different time perspectives",
		opening:     "Consider this question across different time perspectives: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Context", contextOr(r, "General exploration")},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Explore 3-4 temporal perspectives:
1. How does this look from a short-term vs. long-term view?
2. What would someone from the past think about this?
3. How might this question evolve in the future?
4. What's the historical context that shapes this question?`,
		closing:     "Consider how time changes the meaning and importance of questions.",
		temperature: 0.7,
		intensity:   map[string]string{"": "Consider how time changes the meaning and importance of questions."},
	},
	ShiftContextual: {
		description: "Explore questions in different contexts",
		opening:     "Consider this question in different contexts: %q",
		fields: func(r Request) [][2]string {
			return [][2]string{
				{"Current context", contextOr(r, "General exploration")},
				{"Focus", or(r.FocusArea, "Different contexts")},
				{"Desired outcome", r.DesiredOutcome},
			}
		},
		ask: `Explore 3-4 different contextual perspectives:
1. How would this question change in different industries or fields?
2. What if this were in a different cultural context?
3. How would scale (personal, organizational or societal) change this?
4. What if resources, constraints, or priorities were different?`,
		closing:     "Show how context shapes the meaning and solutions of questions.",
		temperature: 0.7,
		intensity:   map[string]string{"": "Explore how different contexts shape questions and solutions."},
	},
}

func (t technique) prompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, t.opening, req.OriginalQuestion)
	b.WriteString("\n\n")
	for _, f := range t.fields(req) {
		fmt.Fprintf(&b, "%s: %s\n", f[0], f[1])
	}
	b.WriteString("\n" + t.ask + "\n\n" + t.closing)
	return b.String()
}

func (t technique) systemPrompt(intensity string) string {
	addition, ok := t.intensity[intensity]
	if !ok {
		addition = t.intensity[""]
	}
	return basePrompt + "\n\n" + addition
}

// ShiftTypes lists every shift type with its description
func ShiftTypes() []ShiftTypeInfo {
	out := make([]ShiftTypeInfo, 0, len(shiftOrder))
	for _, st := range shiftOrder {
		out = append(out, ShiftTypeInfo{Type: st, Description: techniques[st].description})
	}
	return out
}
