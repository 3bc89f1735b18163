package ui

import (
	"fmt"
	"strings"

	"github.com/taskdot/taskdot/internal/hierarchy"
	"github.com/taskdot/taskdot/internal/task"
)

// TaskLine renders a one-line summary: glyph, id, title, tags.
func TaskLine(t *task.Task) string {
	var b strings.Builder
	b.WriteString(statusStyle(t.Status).Render(StatusGlyph(t.Status)))
	b.WriteString(" ")
	b.WriteString(IDStyle.Render(t.ID))
	b.WriteString(" ")
	b.WriteString(TitleStyle.Render(t.Title))
	if len(t.Tags) > 0 {
		b.WriteString(" ")
		b.WriteString(DimStyle.Render("[" + strings.Join(t.Tags, ", ") + "]"))
	}
	if t.IsMerged() {
		b.WriteString(" ")
		b.WriteString(DimStyle.Render("(merged into " + t.Metadata.GetString(task.MetaMergedInto) + ")"))
	}
	return b.String()
}

// TaskDetail renders the full record for the show command.
func TaskDetail(t *task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", IDStyle.Render(t.ID), TitleStyle.Render(t.Title))
	fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("status:"), statusStyle(t.Status).Render(string(t.Status)))
	fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("readiness:"), string(t.Readiness))
	fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("tags:"), task.FormatTags(t))
	if t.ParentID != "" {
		fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("parent:"), t.ParentID)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("description:"), t.Description)
	}
	if t.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Body)
	}
	if len(t.Metadata) > 0 {
		b.WriteString(DimStyle.Render("metadata:"))
		b.WriteString("\n")
		for _, k := range t.Metadata.SortedKeys() {
			fmt.Fprintf(&b, "  %s: %v\n", k, t.Metadata[k])
		}
	}
	fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("created:"), t.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("updated:"), t.UpdatedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// Tree renders the hierarchy with box-drawing connectors.
func Tree(tree *hierarchy.Tree) string {
	var b strings.Builder
	for _, root := range tree.Roots() {
		b.WriteString(TaskLine(root))
		b.WriteString("\n")
		renderChildren(&b, tree, root, "")
	}
	return b.String()
}

func renderChildren(b *strings.Builder, tree *hierarchy.Tree, t *task.Task, prefix string) {
	children := tree.Children(t.ID)
	for i, child := range children {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		b.WriteString(prefix)
		b.WriteString(DimStyle.Render(connector))
		b.WriteString(TaskLine(child))
		b.WriteString("\n")
		renderChildren(b, tree, child, childPrefix)
	}
}

// Candidates renders a ranked duplicate list.
func Candidates(results []task.SimilarityResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "  %s %s %s\n",
			ScoreStyle.Render(fmt.Sprintf("%.2f", r.Similarity)),
			IDStyle.Render(r.ID),
			r.Title)
	}
	return b.String()
}

// Pass renders a success line.
func Pass(format string, args ...any) string {
	return SuccessStyle.Render("✓ ") + fmt.Sprintf(format, args...)
}

// Warn renders a warning line.
func Warn(format string, args ...any) string {
	return WarningStyle.Render("! ") + fmt.Sprintf(format, args...)
}

// Fail renders an error line.
func Fail(format string, args ...any) string {
	return ErrorStyle.Render("✗ ") + fmt.Sprintf(format, args...)
}
