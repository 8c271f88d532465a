package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	domai "github.com/medisense/medisense-api/internal/domain/ai"
)

// Client is a thin, bounded-latency wrapper around the Gemini API
// implementing the domain gateway port. It composes the multimodal
// request and returns raw text plus grounding metadata; it never
// parses or validates the model's JSON.
type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: cli}, nil
}

func (c *Client) Invoke(ctx context.Context, req domai.Request) (*domai.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if len(p.Data) > 0 {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIME))
		} else {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseSchema = toSchema(req.Schema)
	}
	if req.WebSearch {
		// A grounding tool and a strict JSON response format are mutually
		// exclusive on the API; with search enabled the schema stays a hint.
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, classify(ctx, req, err)
	}

	out := &domai.Response{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			gc := domai.GroundingChunk{}
			if chunk.Web != nil {
				gc.Web = &domai.WebSource{Title: chunk.Web.Title, URI: chunk.Web.URI}
			}
			out.Grounding = append(out.Grounding, gc)
		}
	}
	return out, nil
}

func classify(ctx context.Context, req domai.Request, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		msg := req.DeadlineMessage
		if msg == "" {
			msg = fmt.Sprintf("model call exceeded %s", req.Timeout)
		}
		return fmt.Errorf("%s: %w", msg, domai.ErrTimeout)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("model invocation failed: %w", err)
}

func toSchema(s *domai.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Type {
		case domai.FieldStringArray:
			props[f.Name] = &genai.Schema{
				Type:        genai.TypeArray,
				Description: f.Description,
				Items:       &genai.Schema{Type: genai.TypeString},
			}
		default:
			prop := &genai.Schema{Type: genai.TypeString, Description: f.Description}
			if len(f.Enum) > 0 {
				prop.Enum = f.Enum
			}
			props[f.Name] = prop
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   s.Required,
	}
}
