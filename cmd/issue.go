package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zako-ac/issuetracker/internal/llm"
	"github.com/zako-ac/issuetracker/internal/models"
	"github.com/zako-ac/issuetracker/internal/output"
	"github.com/zako-ac/issuetracker/internal/store"
)

var (
	issueName   string
	issueDetail string
	issueTag    string
	issueUser   string
	issuePage   int
	issueUseLLM bool
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Record and triage issues",
	Long:  "Record issues submitted through the chat bot and move them through their lifecycle.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new issue",
	Long:  "Add a new issue. New issues always start as Proposed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAddRun()
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List issues",
	Long:    "List issues, optionally filtered by tag, one page at a time.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show issue details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

var issueStatusCmd = &cobra.Command{
	Use:   "status <issue-id> <status>",
	Short: "Change an issue's status (admins only)",
	Long: `Change an issue's status. --user must be one of the configured admins.

Statuses: ` + statusList(),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueStatusRun(args[0], args[1])
	},
}

var issueCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueCountRun()
	},
}

var issueSuggestTagCmd = &cobra.Command{
	Use:   "suggest-tag",
	Short: "Suggest a tag for an issue",
	Long: `Suggest a tag from the issue name and detail.

Uses keyword matching by default. With --llm and ANTHROPIC_API_KEY set,
asks the configured Anthropic model instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueSuggestTagRun()
	},
}

func init() {
	issueAddCmd.Flags().StringVar(&issueName, "name", "", "Issue name (required)")
	issueAddCmd.Flags().StringVar(&issueDetail, "detail", "", "Issue detail (required)")
	issueAddCmd.Flags().StringVar(&issueTag, "tag", "", "Tag (required): "+tagList())
	issueAddCmd.Flags().StringVar(&issueUser, "user", "", "Submitter's chat identity")
	_ = issueAddCmd.MarkFlagRequired("name")

	issueListCmd.Flags().StringVar(&issueTag, "tag", "", "Filter by tag")
	issueListCmd.Flags().IntVar(&issuePage, "page", 1, "Page number")

	issueStatusCmd.Flags().StringVar(&issueUser, "user", "", "Chat identity of the admin making the change (required)")
	_ = issueStatusCmd.MarkFlagRequired("user")

	issueSuggestTagCmd.Flags().StringVar(&issueName, "name", "", "Issue name (required)")
	issueSuggestTagCmd.Flags().StringVar(&issueDetail, "detail", "", "Issue detail")
	issueSuggestTagCmd.Flags().BoolVar(&issueUseLLM, "llm", false, "Ask the Anthropic model instead of keyword matching")
	_ = issueSuggestTagCmd.MarkFlagRequired("name")

	issueCmd.AddCommand(issueAddCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueStatusCmd)
	issueCmd.AddCommand(issueCountCmd)
	issueCmd.AddCommand(issueSuggestTagCmd)
	rootCmd.AddCommand(issueCmd)
}

func tagList() string {
	tags := models.AllIssueTags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func statusList() string {
	statuses := models.AllIssueStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// parseTagFlag resolves a --tag value. An empty value is returned as-is.
func parseTagFlag(raw string) (models.IssueTag, error) {
	if raw == "" {
		return "", nil
	}
	tag, ok := models.ParseIssueTag(raw)
	if !ok {
		return "", fmt.Errorf("unknown tag %q (valid: %s)", raw, tagList())
	}
	return tag, nil
}

func parseIssueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", raw)
	}
	return id, nil
}

func issueAddRun() error {
	tag, err := parseTagFlag(issueTag)
	if err != nil {
		return err
	}

	issue := &models.Issue{
		Name:      issueName,
		Detail:    issueDetail,
		Tag:       tag,
		DiscordID: issueUser,
	}

	if dryRun {
		ui.DryRunMsg("Would add issue: %s [%s]", issueName, tag)
		return nil
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	ok, err := s.CreateIssue(context.Background(), issue)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("issue not created: --name, --detail and --tag are required")
	}

	ui.Success("Created issue %s: %s", output.IssueRef(issue.ID), issue.Name)
	return nil
}

func issueListRun() error {
	tag, err := parseTagFlag(issueTag)
	if err != nil {
		return err
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	issues, err := s.ListIssues(context.Background(), tag)
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		ui.Info("No issues found.")
		return nil
	}

	size := appConfig.PageSize()
	ids := store.SortedIDs(issues)
	pageIDs := store.Page(ids, issuePage, size)
	pages := store.PageCount(len(ids), size)
	ui.VerboseLog("Page size %d, %d issues", size, len(ids))

	if len(pageIDs) == 0 {
		ui.Info("Page %d is empty (%d pages).", issuePage, pages)
		return nil
	}

	page := make([]*models.Issue, len(pageIDs))
	for i, id := range pageIDs {
		page[i] = issues[id]
	}
	if err := ui.IssueTable(page); err != nil {
		return err
	}

	if pages > 1 {
		fmt.Fprintf(ui.Out, "\nPage %d of %d (%d issues)\n", max(issuePage, 1), pages, len(ids))
	}
	return nil
}

func issueShowRun(rawID string) error {
	id, err := parseIssueID(rawID)
	if err != nil {
		return err
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	issue, err := s.GetIssue(context.Background(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("issue #%d not found", id)
		}
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.IssueRef(issue.ID), issue.Name)
	ui.Field("Tag", issue.Tag)
	ui.Field("Status", output.Status(issue.Status))
	if issue.DiscordID != "" {
		ui.Field("Submitter", issue.DiscordID)
	}
	ui.Field("Detail", issue.Detail)
	return nil
}

func issueStatusRun(rawID, rawStatus string) error {
	if !getAdmins().IsAdmin(issueUser) {
		return fmt.Errorf("user %q is not an admin", issueUser)
	}

	id, err := parseIssueID(rawID)
	if err != nil {
		return err
	}
	status, ok := models.ParseIssueStatus(rawStatus)
	if !ok {
		return fmt.Errorf("unknown status %q (valid: %s)", rawStatus, statusList())
	}

	if dryRun {
		ui.DryRunMsg("Would set issue #%d to %s", id, status)
		return nil
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	ok, err = s.UpdateIssueStatus(context.Background(), id, status)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("issue #%d not updated", id)
	}

	ui.Success("Issue %s is now %s", output.IssueRef(id), output.Status(status))
	return nil
}

func issueCountRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	n, err := s.CountIssues(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(ui.Out, n)
	return nil
}

func issueSuggestTagRun() error {
	var tag models.IssueTag

	if issueUseLLM {
		client := newLLMClient()
		if client == nil {
			return fmt.Errorf("--llm needs ANTHROPIC_API_KEY or anthropic.api_key")
		}
		ui.VerboseLog("Asking the model for a tag")
		t, err := client.SuggestTag(context.Background(), issueName, issueDetail)
		if err != nil {
			return fmt.Errorf("suggest tag: %w", err)
		}
		tag = t
	} else {
		tag = llm.SuggestTagHeuristic(issueName, issueDetail)
	}

	fmt.Fprintln(ui.Out, tag)
	return nil
}
