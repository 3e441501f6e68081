package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jarvis/internal/dispatch"
	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/shared"
	"github.com/urfave/cli/v3"
)

const contentHint = "Pass --content with the text for '%s'."

// AskOutput is the --json shape of [Runner.Ask].
type AskOutput struct {
	Messages []string `json:"messages"`
	OpenURL  string   `json:"open_url,omitempty"`
	Awaiting string   `json:"awaiting,omitempty"`
}

// ClassifyOutput is the --json shape of [Runner.Classify].
type ClassifyOutput struct {
	Route    string            `json:"route"`
	Action   intent.ActionType `json:"action"`
	Parsed   intent.Parsed     `json:"parsed"`
	Filename string            `json:"filename,omitempty"`
}

func messageArg(cmd *cli.Command) (string, error) {
	text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}
	return text, nil
}

// Ask sends one message through the dispatcher. A "create file" message is
// completed in the same call when --content is given.
func (r *Runner) Ask(ctx context.Context, cmd *cli.Command) error {
	text, err := messageArg(cmd)
	if err != nil {
		return err
	}

	result := r.dispatcher.Handle(ctx, text, dispatch.Idle)
	out := AskOutput{Messages: result.Messages, OpenURL: result.OpenURL}

	if result.State.Awaiting() {
		if cmd.IsSet("content") {
			next := r.dispatcher.Submit(ctx, result.State, cmd.String("content"))
			out.Messages = append(out.Messages, next.Messages...)
		} else {
			out.Awaiting = result.State.Filename
			out.Messages = append(out.Messages, fmt.Sprintf(contentHint, out.Awaiting))
		}
	}

	if out.OpenURL != "" && !cmd.Bool("no-browser") {
		if err := r.openBrowser(out.OpenURL); err != nil {
			r.logger.Warn("failed to open browser", "url", out.OpenURL, "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	for _, msg := range out.Messages {
		if err := r.writePlain("%s\n", msg); err != nil {
			return err
		}
	}
	if out.OpenURL != "" {
		return r.writePlain("Authorize Spotify at: %s\n", out.OpenURL)
	}
	return nil
}

// Classify prints how a message would be routed and parsed.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	text, err := messageArg(cmd)
	if err != nil {
		return err
	}

	decision := dispatch.Decide(text)
	parsed, action := r.dispatcher.Classify(text)
	out := ClassifyOutput{
		Route:    decision.Route.String(),
		Action:   action,
		Parsed:   parsed,
		Filename: decision.Filename,
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	lines := []string{"route:  " + out.Route}
	switch decision.Route {
	case dispatch.RouteMedia:
		lines = append(lines,
			"action: "+action.String(),
			"type:   "+parsed.Type.String(),
			"name:   "+parsed.Name,
		)
	case dispatch.RouteDeleteFile, dispatch.RouteCreateFile:
		lines = append(lines, "file:   "+decision.Filename)
	}

	for _, line := range lines {
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}
