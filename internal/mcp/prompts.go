package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("plan_session",
		mcp.WithPromptDescription("Lay out a training session on the canvas from the drill library"),
		mcp.WithArgument("focus",
			mcp.ArgumentDescription("What the session should work on (e.g. pressing, finishing)"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("minutes",
			mcp.ArgumentDescription("Target session length in minutes"),
		),
	), s.handlePlanSessionPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("annotate_plan",
		mcp.WithPromptDescription("Add coaching notes next to the drills already on the canvas and link them with arrows"),
	), s.handleAnnotatePrompt)
}

func (s *Server) handlePlanSessionPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	focus := req.Params.Arguments["focus"]
	minutes := req.Params.Arguments["minutes"]
	if minutes == "" {
		minutes = "60"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Plan a session on: %s", focus),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Plan a training session about "%s" lasting about %s minutes. Follow these steps:

1. Use list_drills to see the drill library and pick drills that fit the focus.
2. Add each drill with add_card (kind "drill", drillId from the library). Let auto-layout pick positions.
3. Add a note card (kind "note") titled "%s" with the session goals.
4. Connect the drills in running order with connect_cards (right anchor to left anchor).
5. Use arrange_cards to tidy the row, then save_layout.

Keep the total duration close to the target.`, focus, minutes, focus),
				},
			},
		},
	}, nil
}

func (s *Server) handleAnnotatePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Annotate the current plan",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Read the planboard://layout resource. For every drill card without a nearby note:

1. Add a note card (kind "note") with one or two coaching points for that drill.
2. Connect the note to the drill with connect_cards (note bottom anchor to drill top anchor).

Do not move or delete existing cards. Finish with save_layout.`,
				},
			},
		},
	}, nil
}
