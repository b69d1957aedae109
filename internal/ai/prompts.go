package ai

import (
	"fmt"
	"strings"
)

const suggestBase = `You are an expert at the command line. Turn the user's request into one precise, safe command.

Rules:
1. Reply with the command and nothing else: no prose, no markdown, no code fences.
2. Do not add comments.
3. The command must run as-is when pasted into a terminal.
4. Prefer a single line; chain with && or pipes when several steps are needed.
5. Never ask a follow-up question. Make a reasonable assumption instead.
6. When the user asks to change a previous answer, reply with the full revised command.`

var targetContext = map[string]string{
	"shell": `Target: a POSIX shell (bash or zsh).
Typical tools: ls, find, grep, sed, awk, xargs, tar, curl, ps, kill, df, du, ssh, rsync.`,
	"git": `Target: git.
Typical subcommands: status, diff, add, commit, restore, switch, branch, merge, rebase, stash, log, show, blame, reflog, cherry-pick, bisect, worktree.`,
	"gh": `Target: the GitHub CLI (gh).
Typical subcommands: gh repo, gh pr, gh issue, gh run, gh workflow, gh release, gh gist, gh api.`,
}

var suggestExamples = []struct{ request, command string }{
	{"list all files including hidden ones", "ls -la"},
	{"find go files changed in the last 3 days", `find . -name "*.go" -type f -mtime -3`},
	{"undo the last commit but keep the changes", "git reset --soft HEAD~1"},
	{"show open pull requests assigned to me", "gh pr list --assignee @me"},
}

// SuggestPrompt returns the system prompt for target. Unknown targets fall
// back to the shell prompt.
func SuggestPrompt(target string) string {
	ctx, ok := targetContext[target]
	if !ok {
		ctx = targetContext["shell"]
	}

	var b strings.Builder
	b.WriteString(suggestBase)
	b.WriteString("\n\n")
	b.WriteString(ctx)
	b.WriteString("\n\nExamples:\n")
	for _, ex := range suggestExamples {
		fmt.Fprintf(&b, "\nRequest: %s\nReply: %s\n", ex.request, ex.command)
	}
	return b.String()
}

const explainPrompt = `You are an expert at the command line. Explain the command the user gives you to someone who knows the basics but not every flag.

Answer in markdown with exactly two sections:

## Summary
One or two sentences on what the command does and what the user should expect to see.

## Breakdown
A bullet list with one entry per program, flag, argument and operator, in the order they appear. Put each piece in backticks and follow it with a short explanation.

Point out anything destructive or irreversible.`

// ExplainPrompt returns the system prompt for explaining a command.
func ExplainPrompt() string { return explainPrompt }
