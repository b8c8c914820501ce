package reconcile

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	conv "github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

// EmptyReplyApology is the fixed turn text used when the model returns
// nothing at all.
const EmptyReplyApology = "抱歉，我沒有收到任何回覆，請再試一次。"

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("```\\s*$")
)

// StripFences removes a surrounding Markdown code fence, if any.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// Reconcile normalizes raw model output into an assistant turn according to
// the persona's output contract. It never fails: contract violations degrade
// to a plain-summary turn and an empty reply becomes a fixed apology.
// Deterministic for identical inputs.
func Reconcile(p persona.Persona, raw string, loc *conv.Location, citations []conv.Citation) conv.Turn {
	if strings.TrimSpace(raw) == "" {
		return conv.NewAssistantTurn(p.ID, conv.Payload{
			Plan: &conv.TripPlan{Summary: EmptyReplyApology},
		})
	}

	if !p.Structured() {
		return conv.NewAssistantTurn(p.ID, conv.Payload{
			Plan:      &conv.TripPlan{Summary: raw},
			Location:  loc,
			Citations: citations,
		})
	}

	cleaned := StripFences(raw)
	var plan conv.TripPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil || plan.Summary == "" {
		// The structured semantics can't be trusted, so the location
		// snapshot attached to them is dropped too.
		if err != nil {
			log.Printf("[reconcile] persona %s reply failed contract, degrading to plain summary: %v", p.ID, err)
		} else {
			log.Printf("[reconcile] persona %s reply parsed but carries no summary, degrading to plain summary", p.ID)
		}
		return conv.NewAssistantTurn(p.ID, conv.Payload{
			Plan:      &conv.TripPlan{Summary: cleaned},
			Citations: citations,
		})
	}

	return conv.NewAssistantTurn(p.ID, conv.Payload{
		Plan:      &plan,
		Location:  loc,
		Citations: citations,
	})
}
