// Package mcpserver exposes the styling flows as Model Context Protocol tools
// so assistants can describe garments and plan outfits over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/store"
	"github.com/fpang/styleai/internal/stylist"
	"github.com/fpang/styleai/internal/wardrobe"
)

// Tool names.
const (
	ToolDescribeItem      = "describe_item"
	ToolSuggestOutfit     = "suggest_outfit"
	ToolSummarizeWardrobe = "summarize_wardrobe"
	ToolListWardrobe      = "list_wardrobe"
)

// Flows is the set of AI flows behind the tools. *chat.Client satisfies it.
type Flows interface {
	stylist.Flows
	GenerateDescription(ctx context.Context, in schema.DescriptionInput, opts ...chat.CallOption) (schema.DescriptionOutput, error)
	SummarizeWardrobe(ctx context.Context, in schema.SummaryInput, opts ...chat.CallOption) (schema.SummaryOutput, error)
}

type DescribeItemArgs struct {
	PhotoDataURI string   `json:"photoDataUri" jsonschema:"base64 data URI of a JPEG, PNG, or WebP photo of one garment"`
	Language     string   `json:"language,omitempty" jsonschema:"response language code such as en or vi"`
	Categories   []string `json:"categories,omitempty" jsonschema:"restrict the category to these values"`
}

type SuggestOutfitArgs struct {
	Occasion string `json:"occasion" jsonschema:"the occasion to dress for"`
	Weather  string `json:"weather" jsonschema:"the expected weather"`
	Style    string `json:"style,omitempty" jsonschema:"optional style preference"`
	Gender   string `json:"gender,omitempty" jsonschema:"optional gender, male or female"`
	Language string `json:"language,omitempty" jsonschema:"response language code such as en or vi"`
}

type ListWardrobeArgs struct {
	Category string `json:"category,omitempty" jsonschema:"only list items of this category"`
}

type ListWardrobeResult struct {
	Items []wardrobe.SnapshotEntry `json:"items"`
}

// Server wires the flows and the wardrobe view into an MCP server.
type Server struct {
	flows    Flows
	view     *store.View
	stylist  *stylist.Stylist
	language string
	mcp      *mcp.Server
}

// New creates a Server and registers its tools. language is the default
// response language.
func New(flows Flows, view *store.View, language, version string) *Server {
	s := &Server{
		flows:    flows,
		view:     view,
		stylist:  stylist.New(flows, view),
		language: language,
		mcp:      mcp.NewServer(&mcp.Implementation{Name: "styleai", Version: version}, nil),
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolDescribeItem,
		Description: "Describe the garment in a photo and pick its wardrobe category.",
	}, s.describeItem)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSuggestOutfit,
		Description: "Suggest an outfit from the stored wardrobe for an occasion and weather, with the matching items.",
	}, s.suggestOutfit)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSummarizeWardrobe,
		Description: "Summarize the stored wardrobe and the owner's apparent style.",
	}, s.summarizeWardrobe)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolListWardrobe,
		Description: "List stored wardrobe items without their photos.",
	}, s.listWardrobe)
	return s
}

// MCP returns the underlying server, e.g. to connect an in-memory transport.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Int("items", s.view.Len()).Msg("Starting MCP server on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) languageOr(lang string) string {
	if lang != "" {
		return lang
	}
	return s.language
}

func (s *Server) describeItem(ctx context.Context, _ *mcp.CallToolRequest, args DescribeItemArgs) (*mcp.CallToolResult, schema.DescriptionOutput, error) {
	in := schema.DescriptionInput{
		PhotoDataURI: args.PhotoDataURI,
		Language:     s.languageOr(args.Language),
	}
	for _, name := range args.Categories {
		c, err := wardrobe.ParseCategory(name)
		if err != nil {
			return nil, schema.DescriptionOutput{}, err
		}
		in.Categories = append(in.Categories, c)
	}
	out, err := s.flows.GenerateDescription(ctx, in)
	if err != nil {
		return nil, schema.DescriptionOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) suggestOutfit(ctx context.Context, _ *mcp.CallToolRequest, args SuggestOutfitArgs) (*mcp.CallToolResult, stylist.Consultation, error) {
	out, err := s.stylist.Consult(ctx, stylist.Request{
		Occasion: args.Occasion,
		Weather:  args.Weather,
		Style:    args.Style,
		Gender:   wardrobe.Gender(args.Gender),
		Language: s.languageOr(args.Language),
		Mute:     true,
	})
	if err != nil {
		return nil, stylist.Consultation{}, err
	}
	// Photos would bloat the tool result; IDs and descriptions identify items.
	for i := range out.Items {
		out.Items[i].PhotoDataURI = ""
	}
	return nil, out, nil
}

func (s *Server) summarizeWardrobe(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, schema.SummaryOutput, error) {
	items := s.view.Items()
	if len(items) == 0 {
		return nil, schema.SummaryOutput{}, stylist.EmptyWardrobe()
	}
	out, err := s.flows.SummarizeWardrobe(ctx, schema.SummaryInput{WardrobeDescription: wardrobe.Describe(items)})
	if err != nil {
		return nil, schema.SummaryOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) listWardrobe(_ context.Context, _ *mcp.CallToolRequest, args ListWardrobeArgs) (*mcp.CallToolResult, ListWardrobeResult, error) {
	items := s.view.Items()
	if args.Category != "" {
		c, err := wardrobe.ParseCategory(args.Category)
		if err != nil {
			return nil, ListWardrobeResult{}, fmt.Errorf("list wardrobe: %w", err)
		}
		filtered := items[:0]
		for _, it := range items {
			if it.Category == c {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	return nil, ListWardrobeResult{Items: wardrobe.Snapshot(items)}, nil
}
