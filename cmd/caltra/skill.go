// ABOUTME: install-skill command that teaches Claude Code to drive caltra.
// ABOUTME: Writes the embedded SKILL.md into ~/.claude/skills/caltra after asking first.

package main

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

var skillSkipConfirm bool

var installSkillCmd = &cobra.Command{
	Use:   "install-skill",
	Short: "Let Claude Code log food with caltra",
	Long: `Write caltra's skill file to ~/.claude/skills/caltra/SKILL.md.

With the skill in place Claude Code knows the caltra commands and can log
meals, estimate nutrition, and report progress toward your goals when you ask
in plain language. Re-running the command refreshes the file.`,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		return installSkill(home, os.Stdin, cmd.OutOrStdout(), skillSkipConfirm)
	},
}

func init() {
	installSkillCmd.Flags().BoolVarP(&skillSkipConfirm, "yes", "y", false, "write the file without asking")
	rootCmd.AddCommand(installSkillCmd)
}

func installSkill(home string, in io.Reader, out io.Writer, skipConfirm bool) error {
	dir := filepath.Join(home, ".claude", "skills", "caltra")
	path := filepath.Join(dir, "SKILL.md")

	fmt.Fprintln(out, color.New(color.Bold).Sprint("caltra skill for Claude Code"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Once installed, Claude Code can run caltra for you:")
	fmt.Fprintln(out, "  add what you ate, with calories and protein")
	fmt.Fprintln(out, "  estimate foods you only describe")
	fmt.Fprintln(out, "  tell you how today compares with your goals")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Target: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(out, faint.Sprint("An existing skill file at this path will be replaced."))
	}
	fmt.Fprintln(out)

	if !skipConfirm && !confirm(in, out, "Write the skill file? [y/N] ") {
		fmt.Fprintln(out, "Nothing written.")
		return nil
	}

	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return fmt.Errorf("read embedded skill: %w", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create skill directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("write skill file: %w", err)
	}

	fmt.Fprintf(out, "%s skill written\n", color.GreenString("✓"))
	fmt.Fprintln(out, `Ask Claude something like "log 200 g of chicken for dinner" or "how many calories do I have left?"`)
	return nil
}

// confirm asks prompt on out and reports whether the reply was yes.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	reply, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes":
		fmt.Fprintln(out)
		return true
	}
	return false
}
