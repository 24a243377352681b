package main

import (
	"fmt"
	"io"

	"heritage-archive-be/pkg/rag/response"

	"github.com/fatih/color"
)

var (
	labelSearching = color.New(color.FgCyan, color.Bold)
	labelMessage   = color.New(color.FgBlue, color.Bold)
	labelResults   = color.New(color.FgGreen, color.Bold)
	labelDone      = color.New(color.FgGreen)
	labelError     = color.New(color.FgRed, color.Bold)
	dim            = color.New(color.Faint)
)

// renderEvent prints one stream event as a human-readable block.
func renderEvent(w io.Writer, e response.Event) error {
	var err error
	switch e.Type {
	case response.EventSearching:
		_, err = fmt.Fprintf(w, "%s %q %s\n", labelSearching.Sprint("searching"), e.Query, dim.Sprintf("(thread %s)", e.ThreadID))
	case response.EventMessage:
		_, err = fmt.Fprintf(w, "%s %s\n", labelMessage.Sprint("message"), e.Text)
	case response.EventResults:
		if _, err = fmt.Fprintf(w, "%s %d so far\n", labelResults.Sprint("results"), e.Total); err == nil {
			err = renderArchives(w, e.Archives)
		}
	case response.EventDone:
		_, err = fmt.Fprintf(w, "%s %d archives", labelDone.Sprint("done"), e.Total)
		if err == nil && e.Message != "" {
			_, err = fmt.Fprintf(w, " %s", dim.Sprint(e.Message))
		}
		if err == nil {
			_, err = fmt.Fprintln(w)
		}
	case response.EventError:
		_, err = fmt.Fprintf(w, "%s %s\n", labelError.Sprint("error"), e.Message)
	case response.EventStep:
		_, err = fmt.Fprintf(w, "  %s\n", dim.Sprintf("%s: nothing new", e.Text))
	default:
		_, err = fmt.Fprintf(w, "%s\n", e.Type)
	}
	return err
}

func renderArchives(w io.Writer, views []response.ArchiveView) error {
	for _, v := range views {
		score := "filter"
		if v.Similarity != nil {
			score = fmt.Sprintf("%.2f %s", *v.Similarity, v.Relevance)
		}
		if _, err := fmt.Fprintf(w, "  • %s %s\n", v.Title, dim.Sprintf("[%s]", score)); err != nil {
			return err
		}
	}
	return nil
}
