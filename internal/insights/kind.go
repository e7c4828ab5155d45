// Package insights turns a metrics summary into LLM prompts and runs them
// through the fallback chain, recording each request in the audit log.
package insights

import (
	"fmt"
	"strings"
)

// Kind selects one of the canned analyses.
type Kind string

const (
	Trends    Kind = "trends"
	Anomalies Kind = "anomalies"
	Actions   Kind = "actions"
	Email     Kind = "email"
)

// Kinds lists every analysis in display order.
var Kinds = []Kind{Trends, Anomalies, Actions, Email}

type kindInfo struct {
	label string // audit action
	title string // card heading
}

var catalog = map[Kind]kindInfo{
	Trends:    {label: "Summarize Trends", title: "Market Trends"},
	Anomalies: {label: "Identify Anomalies", title: "Anomalies Detected"},
	Actions:   {label: "Suggest Actions", title: "Recommended Actions"},
	Email:     {label: "Draft CEO Email", title: "Draft: Executive Brief"},
}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("unknown insight kind %q (want one of trends, anomalies, actions, email)", s)
	}
	return k, nil
}

// Label is the action name written to the audit log.
func (k Kind) Label() string { return catalog[k].label }

// Title is the heading shown above the answer.
func (k Kind) Title() string { return catalog[k].title }

// Prompt builds the task text for kind from the formatted stats line.
func Prompt(k Kind, stats string) string {
	switch k {
	case Trends:
		return fmt.Sprintf("Analyze these stats: %s. Write 3 professional bullet points on market trends.", stats)
	case Anomalies:
		return fmt.Sprintf("Check these stats for outliers: %s. Be brief and professional. Provide your answer in concise points.", stats)
	case Actions:
		return fmt.Sprintf("Based on %s, suggest 3 concrete business actions to improve revenue.", stats)
	case Email:
		return fmt.Sprintf("Write a formal email to the CEO. \nData: %s. \nStructure: Subject, Executive Summary, Key Metrics, Conclusion. \nTone: Professional.", stats)
	default:
		return stats
	}
}
