package dispatch

import (
	"fmt"
	"strings"
	"time"
)

// note is the markdown body of one SiYuan submission. Summary (when
// present) leads, the provenance block and the original text follow.
type note struct {
	Summary   string
	SourceURL string
	Original  string
	Sender    string
	Hostname  string
	When      time.Time
}

func (n note) render() string {
	var b strings.Builder
	if n.Summary != "" {
		b.WriteString(strings.TrimSpace(n.Summary))
		b.WriteString("\n\n")
	}
	b.WriteString("## input via telegram\n")
	fmt.Fprintf(&b, "**SUBMIT:** %s\n", n.When.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**BY:** %s@%s\n", n.Sender, n.Hostname)
	if n.SourceURL != "" {
		fmt.Fprintf(&b, "**SOURCE:** [%s](%s)\n", n.SourceURL, n.SourceURL)
	}
	if n.Original != "" {
		fmt.Fprintf(&b, "\n```\n%s\n```", n.Original)
	}
	return b.String()
}
