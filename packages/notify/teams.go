package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TeamsNotifier posts an Adaptive Card to a Microsoft Teams webhook.
type TeamsNotifier struct {
	webhookURL string
	client     *resty.Client
}

func NewTeamsNotifier(webhookURL string) *TeamsNotifier {
	return &TeamsNotifier{
		webhookURL: webhookURL,
		client:     newWebhookClient(),
	}
}

func (t *TeamsNotifier) Name() string {
	return "teams"
}

type teamsMessage struct {
	Type        string      `json:"type"`
	Attachments []teamsCard `json:"attachments"`
}

type teamsCard struct {
	ContentType string           `json:"contentType"`
	ContentURL  *string          `json:"contentUrl"`
	Content     teamsCardContent `json:"content"`
}

type teamsCardContent struct {
	Schema  string       `json:"$schema"`
	Type    string       `json:"type"`
	Version string       `json:"version"`
	Body    []teamsBlock `json:"body"`
}

type teamsBlock struct {
	Type      string        `json:"type"`
	Size      string        `json:"size,omitempty"`
	Weight    string        `json:"weight,omitempty"`
	Text      string        `json:"text,omitempty"`
	Color     string        `json:"color,omitempty"`
	Wrap      bool          `json:"wrap,omitempty"`
	Columns   []teamsColumn `json:"columns,omitempty"`
	Spacing   string        `json:"spacing,omitempty"`
	Separator bool          `json:"separator,omitempty"`
}

type teamsColumn struct {
	Type  string       `json:"type"`
	Width string       `json:"width"`
	Items []teamsBlock `json:"items"`
}

func (t *TeamsNotifier) Notify(ctx context.Context, summary *RunSummary) error {
	return postJSON(ctx, t.client, t.webhookURL, t.message(summary))
}

func (t *TeamsNotifier) message(summary *RunSummary) teamsMessage {
	color := "good"
	if !summary.Success() {
		color = "attention"
	}

	column := func(title, val, color string) teamsColumn {
		return teamsColumn{
			Type:  "Column",
			Width: "stretch",
			Items: []teamsBlock{
				{Type: "TextBlock", Text: "**" + title + "**", Wrap: true},
				{Type: "TextBlock", Text: val, Color: color, Wrap: true},
			},
		}
	}

	body := []teamsBlock{
		{Type: "TextBlock", Size: "Large", Weight: "Bolder", Text: headline(summary), Color: color},
		{
			Type:      "ColumnSet",
			Separator: true,
			Spacing:   "Medium",
			Columns: []teamsColumn{
				column("Total Tests", fmt.Sprintf("%d", summary.TotalTests), ""),
				column("Passed", fmt.Sprintf("%d", summary.PassedTests), "good"),
				column("Failed", fmt.Sprintf("%d", summary.FailedTests+summary.ErroredTests), "attention"),
				column("Duration", summary.Duration.Round(time.Millisecond).String(), ""),
			},
		},
	}

	if summary.Environment != "" {
		body = append(body, teamsBlock{Type: "TextBlock", Text: "**Environment:** " + summary.Environment, Wrap: true})
	}

	if len(summary.Failures) > 0 {
		body = append(body, teamsBlock{Type: "TextBlock", Text: "**Failures:**", Separator: true, Spacing: "Medium"})
		for _, f := range summary.Failures {
			text := fmt.Sprintf("- `%s`", f.label())
			if f.Message != "" {
				text += ": " + f.Message
			}
			body = append(body, teamsBlock{Type: "TextBlock", Text: text, Wrap: true})
		}
		if summary.Omitted > 0 {
			body = append(body, teamsBlock{Type: "TextBlock", Text: fmt.Sprintf("…and %d more", summary.Omitted), Wrap: true})
		}
	}

	body = append(body, teamsBlock{
		Type:      "TextBlock",
		Text:      fmt.Sprintf("_apiflow - %s_", time.Now().Format(time.RFC3339)),
		Separator: true,
		Spacing:   "Medium",
	})

	return teamsMessage{
		Type: "message",
		Attachments: []teamsCard{{
			ContentType: "application/vnd.microsoft.card.adaptive",
			Content: teamsCardContent{
				Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
				Type:    "AdaptiveCard",
				Version: "1.2",
				Body:    body,
			},
		}},
	}
}
