// moviebot-mcp exposes the moviebot actions as an MCP stdio server.
//
// Every registered action becomes a tool taking a sender id, slots and the
// latest message. Configuration is read the same way as moviebot-actions
// (CONFIG_PATH, config.yaml, environment variables).
//
// Usage:
//
//	go install github.com/goblincore/moviebot/cmd/moviebot-mcp
//	moviebot-mcp
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goblincore/moviebot"
	"github.com/goblincore/moviebot/internal/app"
	"github.com/goblincore/moviebot/internal/config"
	"github.com/goblincore/moviebot/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "moviebot-mcp: config: %v\n", err)
		os.Exit(1)
	}
	app.InitLogging(cfg)

	bot, err := app.NewBot(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("moviebot init")
	}
	defer bot.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "moviebot-mcp",
		Version: "1.0.0",
	}, nil)
	registerTools(server, bot, cfg.Store.Timeout)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logging.Error().Err(err).Msg("moviebot-mcp stopped")
	}
}

// bot is the part of *moviebot.Bot the tools use.
type bot interface {
	Dispatch(ctx context.Context, action string, st *moviebot.ConversationState) (moviebot.Result, error)
	Actions() []string
	Store() moviebot.ProfileStore
}

func registerTools(server *mcp.Server, b bot, storeTimeout time.Duration) {
	for _, name := range b.Actions() {
		mcp.AddTool(server, &mcp.Tool{
			Name:        name,
			Description: "Run the " + name + " action. Returns the slot events and reply messages.",
		}, actionHandler(b, name))
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_profile",
		Description: "Look up a stored user profile by sender id.",
	}, getProfileHandler(b, storeTimeout))
}

// --- Input types ---

type actionInput struct {
	SenderID string         `json:"sender_id"         jsonschema:"Conversation sender id; profiles are keyed by it"`
	Slots    map[string]any `json:"slots,omitempty"   jsonschema:"Current slot values, e.g. movie_genre, age, name"`
	Text     string         `json:"text,omitempty"    jsonschema:"Latest user message text"`
	Intent   string         `json:"intent,omitempty"  jsonschema:"Intent detected for the latest message"`
}

type getProfileInput struct {
	SenderID string `json:"sender_id" jsonschema:"Conversation sender id"`
}

// --- Handlers ---

func actionHandler(b bot, name string) func(context.Context, *mcp.CallToolRequest, actionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input actionInput) (*mcp.CallToolResult, any, error) {
		st := &moviebot.ConversationState{
			SenderID: input.SenderID,
			Slots:    input.Slots,
			LatestMessage: moviebot.Message{
				Text:   input.Text,
				Intent: moviebot.Intent{Name: input.Intent},
			},
		}
		if st.Slots == nil {
			st.Slots = map[string]any{}
		}

		res, err := b.Dispatch(ctx, name, st)
		if errors.Is(err, moviebot.ErrUnknownAction) {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		out := resultToMap(res)
		if err != nil {
			out["outcome"] = moviebot.Outcome(err)
		}
		return textResult(jsonString(out)), nil, nil
	}
}

func getProfileHandler(b bot, timeout time.Duration) func(context.Context, *mcp.CallToolRequest, getProfileInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input getProfileInput) (*mcp.CallToolResult, any, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		p, err := b.Store().FindByUserID(ctx, input.SenderID)
		if errors.Is(err, moviebot.ErrProfileNotFound) {
			return textResult(`{"status": "not_found"}`), nil, nil
		}
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("sender_id", input.SenderID).Msg("get_profile failed")
			return textResult(`{"status": "error", "message": "profile store unavailable"}`), nil, nil
		}
		return textResult(jsonString(profileToMap(p))), nil, nil
	}
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func resultToMap(res moviebot.Result) map[string]any {
	events := make([]map[string]any, 0, len(res.Events))
	for _, ev := range res.Events {
		if ev.Type == moviebot.EventRestart {
			events = append(events, map[string]any{"event": "restart"})
			continue
		}
		events = append(events, map[string]any{"event": "slot", "name": ev.Name, "value": ev.Value})
	}
	messages := res.Messages
	if messages == nil {
		messages = []string{}
	}
	return map[string]any{
		"events":   events,
		"messages": messages,
	}
}

func profileToMap(p *moviebot.Profile) map[string]any {
	return map[string]any{
		"id":              p.ID,
		"user_id":         p.UserID,
		"name":            p.Name,
		"last_name":       p.LastName,
		"age":             p.Age,
		"email":           p.Email,
		"favourite_genre": p.FavouriteGenre,
		"created_at":      p.CreatedAt.Format(time.RFC3339),
		"updated_at":      p.UpdatedAt.Format(time.RFC3339),
	}
}

func jsonString(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal: %v"}`, err)
	}
	return string(data)
}
