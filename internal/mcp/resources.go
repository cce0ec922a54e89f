// ABOUTME: MCP resource implementations for the caltra food tracker.
// ABOUTME: Provides caltra://today, caltra://goals, and caltra://foods resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	todayURI = "caltra://today"
	goalsURI = "caltra://goals"
	foodsURI = "caltra://foods"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today's Food Log",
		Description: "Foods logged today with totals, meal groups, and goal progress",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         goalsURI,
		Name:        "Daily Goals",
		Description: "Daily calorie and protein goals",
		MIMEType:    "application/json",
	}, s.handleGoalsResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         foodsURI,
		Name:        "Saved Foods",
		Description: "The saved food catalog with per-100g nutrition",
		MIMEType:    "application/json",
	}, s.handleFoodsResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(todayURI, s.tracker.GetDay(ctx, s.userID, s.tracker.Today()))
}

func (s *Server) handleGoalsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(goalsURI, s.tracker.GetGoals(ctx, s.userID))
}

func (s *Server) handleFoodsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	items := s.tracker.GetFoodItems(ctx, s.userID)
	return jsonResource(foodsURI, map[string]any{
		"foods": items,
		"count": len(items),
	})
}
