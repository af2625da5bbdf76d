// Package output renders zit's terminal output: prefixed status lines,
// issue tables and issue detail views.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/zako-ac/issuetracker/internal/models"
)

// UI writes colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI on stdout/stderr.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

// prefix is a line marker, colored when printed so color.NoColor is honored.
type prefix struct {
	glyph string
	color *color.Color
}

var (
	infoPrefix    = prefix{"i", color.New(color.FgHiBlue)}
	successPrefix = prefix{"✓", color.New(color.FgHiGreen)}
	warningPrefix = prefix{"⚠", color.New(color.FgHiYellow)}
	errorPrefix   = prefix{"✗", color.New(color.FgHiRed)}
	verbosePrefix = prefix{"  →", color.New(color.FgHiBlue)}

	refColor = color.New(color.FgHiCyan)
	yesColor = color.New(color.FgHiGreen)
	noColor  = color.New(color.FgHiRed)
)

var statusColors = map[models.IssueStatus]*color.Color{
	models.IssueStatusProposed:   color.New(color.FgHiCyan),
	models.IssueStatusApproved:   color.New(color.FgHiYellow),
	models.IssueStatusInProgress: color.New(color.FgHiYellow),
	models.IssueStatusCompleted:  color.New(color.FgHiGreen),
	models.IssueStatusRejected:   color.New(color.FgHiRed),
	models.IssueStatusDeleted:    color.New(color.FgHiBlack),
}

func emit(w io.Writer, p prefix, format string, a []any) {
	fmt.Fprintf(w, "%s %s\n", p.color.Sprint(p.glyph), fmt.Sprintf(format, a...))
}

func (u *UI) Info(format string, a ...any)    { emit(u.Out, infoPrefix, format, a) }
func (u *UI) Success(format string, a ...any) { emit(u.Out, successPrefix, format, a) }
func (u *UI) Warning(format string, a ...any) { emit(u.ErrOut, warningPrefix, format, a) }
func (u *UI) Error(format string, a ...any)   { emit(u.ErrOut, errorPrefix, format, a) }

// VerboseLog prints only with --verbose.
func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		emit(u.Out, verbosePrefix, format, a)
	}
}

// DryRunMsg prints only with --dry-run.
func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// IssueRef formats an issue id as "#<id>".
func IssueRef(id int64) string {
	return refColor.Sprint("#" + strconv.FormatInt(id, 10))
}

// Status colors a status by lifecycle stage. Unknown values are returned as-is.
func Status(s models.IssueStatus) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

// YesNo renders an admin check answer.
func YesNo(b bool) string {
	if b {
		return yesColor.Sprint("yes")
	}
	return noColor.Sprint("no")
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

// Field prints one labelled line of an issue detail view.
func (u *UI) Field(label string, value any) {
	fmt.Fprintf(u.Out, "  %-11s %v\n", label+":", value)
}

// IssueTable renders issues in the given order as ID/Name/Tag/Status/Submitter.
func (u *UI) IssueTable(issues []*models.Issue) error {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"ID", "Name", "Tag", "Status", "Submitter"})

	for _, issue := range issues {
		if err := table.Append([]string{
			strconv.FormatInt(issue.ID, 10),
			issue.Name,
			string(issue.Tag),
			Status(issue.Status),
			issue.DiscordID,
		}); err != nil {
			return fmt.Errorf("render issues: %w", err)
		}
	}
	return table.Render()
}
