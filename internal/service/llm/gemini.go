package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yuchialin/concierge/backend/internal/config"
	"github.com/yuchialin/concierge/backend/internal/model/conversation"
	"github.com/yuchialin/concierge/backend/internal/model/persona"
)

// ErrDisabled indicates the Gemini credentials are missing.
var ErrDisabled = errors.New("gemini credentials or model configuration missing")

// Reply is the raw outcome of one chat exchange: the text plus any grounding
// citations the model attached.
type Reply struct {
	Text      string
	Citations []conversation.Citation
}

// Handle is a live conversation bound to one persona's system prompt.
// Exclusively owned by the session manager.
type Handle interface {
	Send(ctx context.Context, text string) (Reply, error)
}

// Client wraps the Gemini API with the three call shapes the core needs:
// enum-constrained classification, persona-bound chat, and grounded one-shot
// lookups.
type Client struct {
	client      *genai.Client
	model       string
	routerModel string
	temperature *float32
}

// NewClient builds a Gemini client from configuration.
func NewClient(ctx context.Context, cfg config.AIConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	var temperature *float32
	if cfg.Temperature != nil {
		temperature = genai.Ptr(float32(*cfg.Temperature))
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		routerModel: cfg.RouterModel,
		temperature: temperature,
	}, nil
}

// ClassifyPersona runs the one-shot routing call. The response schema
// constrains the output to an enum of known persona ids; anything else is an
// error the caller treats as "no switch".
func (c *Client) ClassifyPersona(ctx context.Context, utterance string, candidates []persona.Persona) (string, error) {
	ids := make([]string, 0, len(candidates))
	var roleLines strings.Builder
	for _, p := range candidates {
		ids = append(ids, p.ID)
		fmt.Fprintf(&roleLines, "- %s: %s\n", p.ID, p.Summary)
	}

	prompt := fmt.Sprintf(`Analyze the following user query and determine which AI role is best suited to answer it.
User Query: %q
Available Roles:
%sRespond ONLY with a JSON object matching the provided schema.`, utterance, roleLines.String())

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"roleId": {Type: genai.TypeString, Enum: ids},
			},
			Required: []string{"roleId"},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.routerModel, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("classification call failed: %w", err)
	}

	var decision struct {
		RoleID string `json:"roleId"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &decision); err != nil {
		return "", fmt.Errorf("malformed classification payload: %w", err)
	}
	if decision.RoleID == "" {
		return "", errors.New("classification returned no role id")
	}
	return decision.RoleID, nil
}

// NewHandle creates a chat bound to the persona's system prompt. Search
// grounding is attached uniformly regardless of persona.
func (c *Client) NewHandle(ctx context.Context, p persona.Persona) (Handle, error) {
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.SystemPrompt, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if c.temperature != nil {
		genCfg.Temperature = c.temperature
	}

	chat, err := c.client.Chats.Create(ctx, c.model, genCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat for persona %s: %w", p.ID, err)
	}
	return &geminiHandle{chat: chat}, nil
}

// GroundedLookup issues a one-shot grounded query and returns the trimmed
// text. Used by the ambient status service.
func (c *Client) GroundedLookup(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return "", fmt.Errorf("grounded lookup failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

type geminiHandle struct {
	chat *genai.Chat
}

func (h *geminiHandle) Send(ctx context.Context, text string) (Reply, error) {
	resp, err := h.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return Reply{}, fmt.Errorf("chat send failed: %w", err)
	}
	return Reply{
		Text:      resp.Text(),
		Citations: extractCitations(resp),
	}, nil
}

// extractCitations pulls web grounding sources out of the first candidate,
// skipping the redirect entries Google adds for its own domain.
func extractCitations(resp *genai.GenerateContentResponse) []conversation.Citation {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	var citations []conversation.Citation
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		if strings.Contains(chunk.Web.URI, "google.com") {
			continue
		}
		citations = append(citations, conversation.Citation{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return citations
}
