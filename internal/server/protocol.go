package server

import "github.com/goblincore/moviebot"

type webhookRequest struct {
	NextAction string                     `json:"next_action"`
	SenderID   string                     `json:"sender_id"`
	Tracker    moviebot.ConversationState `json:"tracker"`
}

// state prefers the top-level sender_id over the tracker's.
func (r *webhookRequest) state() *moviebot.ConversationState {
	st := r.Tracker
	if r.SenderID != "" {
		st.SenderID = r.SenderID
	}
	if st.Slots == nil {
		st.Slots = map[string]any{}
	}
	return &st
}

type webhookResponse struct {
	Events    []map[string]any `json:"events"`
	Responses []textResponse   `json:"responses"`
}

type textResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name,omitempty"`
}

func encodeResult(res moviebot.Result) webhookResponse {
	out := webhookResponse{
		Events:    make([]map[string]any, 0, len(res.Events)),
		Responses: make([]textResponse, 0, len(res.Messages)),
	}
	for _, ev := range res.Events {
		switch ev.Type {
		case moviebot.EventSlot:
			out.Events = append(out.Events, map[string]any{"event": "slot", "name": ev.Name, "value": ev.Value})
		case moviebot.EventRestart:
			out.Events = append(out.Events, map[string]any{"event": "restart"})
		}
	}
	for _, m := range res.Messages {
		out.Responses = append(out.Responses, textResponse{Text: m})
	}
	return out
}
