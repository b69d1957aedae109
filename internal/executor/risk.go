package executor

import (
	"regexp"
	"strings"
)

// RiskLevel grades how much damage a command can do if the suggestion is
// wrong.
type RiskLevel int

const (
	// ReadOnly commands only inspect state.
	ReadOnly RiskLevel = iota
	// Modifying commands change files, repositories or processes.
	Modifying
	// Destructive commands can lose data or compromise the machine.
	Destructive
)

func (l RiskLevel) String() string {
	switch l {
	case ReadOnly:
		return "read-only"
	case Modifying:
		return "modifying"
	case Destructive:
		return "destructive"
	default:
		return "unknown"
	}
}

// Risk is the assessment of one command.
type Risk struct {
	Level  RiskLevel
	Reason string
}

var readOnlyCommands = map[string]bool{
	"ls": true, "cat": true, "pwd": true, "echo": true, "head": true, "tail": true,
	"grep": true, "rg": true, "find": true, "which": true, "whoami": true, "date": true,
	"wc": true, "sort": true, "uniq": true, "diff": true, "env": true, "printenv": true,
	"df": true, "du": true, "ps": true, "tree": true, "file": true, "stat": true,
	"less": true, "uname": true, "id": true,
}

var readOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^git\s+(status|log|diff|branch|show|remote|blame|reflog)\b`),
	regexp.MustCompile(`^gh\s+(pr|issue|run|release|repo)\s+(list|view|status)\b`),
	regexp.MustCompile(`^docker\s+(ps|images|inspect|logs)\b`),
	regexp.MustCompile(`^kubectl\s+(get|describe|logs)\b`),
}

var destructivePatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`\brm\s+(-[a-zA-Z]*\s+)*(/|~|\$HOME|\*)`), "removes files from a broad path"},
	{regexp.MustCompile(`\brm\s+-[a-zA-Z]*[rR][a-zA-Z]*f|\brm\s+-[a-zA-Z]*f[a-zA-Z]*[rR]`), "recursively force-removes files"},
	{regexp.MustCompile(`\bsudo\b`), "runs with elevated privileges"},
	{regexp.MustCompile(`\bdd\s+.*of=`), "writes raw data with dd"},
	{regexp.MustCompile(`\bmkfs`), "formats a filesystem"},
	{regexp.MustCompile(`:\(\)\s*\{`), "looks like a fork bomb"},
	{regexp.MustCompile(`(curl|wget)\b.*\|\s*(sudo\s+)?(sh|bash|zsh)\b`), "pipes a download into a shell"},
	{regexp.MustCompile(`>\s*/dev/sd`), "writes to a disk device"},
	{regexp.MustCompile(`\bchmod\s+(-R\s+)?777\b`), "makes files world-writable"},
	{regexp.MustCompile(`>\s*/etc/`), "overwrites a system file"},
	{regexp.MustCompile(`\bgit\s+push\b.*(--force\b|-f\b)`), "force-pushes over remote history"},
	{regexp.MustCompile(`\bgit\s+reset\s+--hard\b`), "discards uncommitted changes"},
	{regexp.MustCompile(`\bgit\s+clean\s+-[a-zA-Z]*f`), "deletes untracked files"},
	{regexp.MustCompile(`\bgh\s+repo\s+delete\b`), "deletes a GitHub repository"},
}

var chaining = regexp.MustCompile(`[;&|]{1,2}|\$\(|` + "`")

// Assess grades command. Destructive patterns win over everything; chained
// commands are at least Modifying since any link may change state.
func Assess(command string) Risk {
	command = strings.TrimSpace(command)
	for _, p := range destructivePatterns {
		if p.re.MatchString(command) {
			return Risk{Level: Destructive, Reason: p.reason}
		}
	}

	if chaining.MatchString(command) {
		return Risk{Level: Modifying, Reason: "chains several commands"}
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Risk{Level: Modifying, Reason: "empty command"}
	}
	if readOnlyCommands[fields[0]] {
		return Risk{Level: ReadOnly}
	}
	for _, re := range readOnlyPatterns {
		if re.MatchString(command) {
			return Risk{Level: ReadOnly}
		}
	}
	return Risk{Level: Modifying, Reason: "may change system state"}
}
