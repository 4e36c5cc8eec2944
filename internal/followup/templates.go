package followup

import (
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// Templates may reference {competency}; it is replaced with a readable label.
var areaTemplates = map[interview.Dimension]string{
	interview.Clarity:          "Could you clarify your main point in one or two sentences and explain specifically what you did?",
	interview.Structure:        "Can you walk me through that again step by step: the situation, your task, the actions you took and the result?",
	interview.DepthSpecificity: "Can you give a specific example with more detail, such as the tools you used or the numbers that show the impact?",
	interview.RoleFit:          "How does that experience prepare you for the {competency} responsibilities of this role?",
	interview.Technical:        "What technical decisions did you make there, and which trade-offs did you weigh between the options?",
	interview.Communication:    "How would you explain that same situation to a non-technical stakeholder, and what would you emphasize?",
	interview.Ownership:        "What was your personal contribution, and which decisions did you own yourself rather than the team?",
}

// continuedTemplates keep assessing candidates who answered well; the empty
// key is the generic probe.
var continuedTemplates = map[string]string{
	"":                "That was a strong answer. How would your approach change if the scope or scale grew tenfold?",
	"technical":       "Good depth there. How would your design hold up at ten times the load, and what would break first?",
	"behavioral":      "Thanks, that was clear. Can you describe a time when a similar situation did not go well, and what you changed afterwards?",
	"leadership":      "That worked well. How would you handle it if a senior stakeholder strongly disagreed with your decision?",
	"communication":   "Nicely explained. How would you adapt that message for an executive audience with only two minutes?",
	"problem_solving": "Solid reasoning. What alternative approach did you reject, and what evidence would make you revisit it?",
}

func render(template, competency string) string {
	label := strings.ReplaceAll(competency, "_", " ")
	if label == "" {
		label = "day-to-day"
	}
	return strings.ReplaceAll(template, "{competency}", label)
}
