package git

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// Status reports how git sees the vault file
type Status struct {
	IsRepo  bool
	Tracked bool // committed or staged
	Ignored bool
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckVault reports the git status of the vault file at vaultPath
func CheckVault(vaultPath string) *Status {
	workDir := filepath.Dir(vaultPath)
	name := filepath.Base(vaultPath)

	status := &Status{}
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true
	status.Tracked = IsTracked(workDir, name)
	status.Ignored = IsIgnored(workDir, name)
	return status
}

// FormatStatus formats git status for display. Outside a repository it
// returns an empty string.
func FormatStatus(status *Status, vaultName string) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit:\n")

	switch {
	case status.Tracked:
		result.WriteString("   warning: " + vaultName + " is tracked by git\n")
		result.WriteString("      anyone with the repository can attack the passphrases offline\n")
		result.WriteString("      (run: git rm --cached " + vaultName + ")\n")
	case status.Ignored:
		result.WriteString("   ok: " + vaultName + " is in .gitignore\n")
	default:
		result.WriteString("   warning: " + vaultName + " not in .gitignore (add to .gitignore)\n")
	}

	return result.String()
}
