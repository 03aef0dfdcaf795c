package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/pthm/hxboundary"
)

// clock renders the server time. Hosted by whichever runtime connects first.
type clock struct{}

func (clock) ComponentType() hxboundary.ComponentType {
	return hxboundary.ComponentType{Name: "Demo.Clock", Assembly: "Demo"}
}

func (clock) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<time class="clock">%s</time>`, html.EscapeString(fmt.Sprint(params["Now"])))
		return err
	})
}

// taskRow renders one task. Session hosted so toggling stays on the server.
type taskRow struct{}

func (taskRow) ComponentType() hxboundary.ComponentType {
	return hxboundary.ComponentType{Name: "Demo.TaskRow", Assembly: "Demo"}
}

func (taskRow) Render(ctx context.Context, params hxboundary.Parameters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		state := ""
		if done, _ := params["Done"].(bool); done {
			state = " checked"
		}
		_, err := fmt.Fprintf(w, `<label><input type="checkbox"%s> %s</label>`,
			state, html.EscapeString(fmt.Sprint(params["Title"])))
		return err
	})
}

// demoPage lays out the board: a clock and one boundary per task, keyed by
// task ID so rows keep their identity when the list changes.
func demoPage(tasks []Task, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html><html><head><title>hxboundary demo</title></head><body><header>"); err != nil {
			return err
		}
		err := hxboundary.Island(hxboundary.Declaration{
			Component:  clock{},
			Mode:       hxboundary.InteractiveAuto(true),
			Parameters: hxboundary.Parameters{"Now": now.Format(time.Kitchen)},
		}).Render(ctx, w)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, "</header><ul>"); err != nil {
			return err
		}
		for _, task := range tasks {
			if _, err := io.WriteString(w, "<li>"); err != nil {
				return err
			}
			err := hxboundary.Island(hxboundary.Declaration{
				Component:  taskRow{},
				Mode:       hxboundary.InteractiveServer(true),
				Parameters: hxboundary.Parameters{"ID": task.ID, "Title": task.Title, "Done": task.Done},
				Sequence:   1,
				Key:        task.ID,
			}).Render(ctx, w)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, "</li>"); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, "</ul></body></html>")
		return err
	})
}
