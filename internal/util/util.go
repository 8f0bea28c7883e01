package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
)

var (
	IsDebug bool

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2563EB")).
			Bold(true)

	// Error styling
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	debugErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF4757")).
			Padding(1, 2)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA726")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF69B4")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

// SetDebugMode sets the debug mode
func SetDebugMode(debug bool) {
	IsDebug = debug
}

// ResolveSeriesName picks the series name from the command line, then the
// config file, and finally asks the user.
func ResolveSeriesName(args []string, configured string) (string, error) {
	if name := strings.TrimSpace(strings.Join(args, " ")); name != "" {
		fmt.Println(titleStyle.Render("Target series: " + name))
		return name, nil
	}
	if name := strings.TrimSpace(configured); name != "" {
		fmt.Println(titleStyle.Render("Target series: " + name))
		return name, nil
	}
	return getUserInput("Enter series name")
}

// ErrorHandler returns a stylized error message
func ErrorHandler(err error) string {
	if IsDebug {
		header := errorStyle.Render("DEBUG ERROR")
		// %+v prints the pkg/errors stack
		return fmt.Sprintf("%s\n%s", header, debugErrorStyle.Render(fmt.Sprintf("%+v", err)))
	}

	styledError := errorStyle.Render(fmt.Sprintf("✗ %v", err))
	styledHint := warningStyle.Render("run the program with --debug to see details")
	return fmt.Sprintf("%s\n%s", styledError, styledHint)
}

// getUserInput prompts the user for a line of input
func getUserInput(label string) (string, error) {
	// Use simpler input method on Windows to avoid readline ANSI issues
	if runtime.GOOS == "windows" {
		return getSimpleInput(label, os.Stdin)
	}

	prompt := promptui.Prompt{
		Label: promptStyle.Render(label),
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("series name cannot be empty")
			}
			return nil
		},
	}

	name, err := prompt.Run()
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	fmt.Println(successStyle.Render("✓ Series name received: " + name))
	return name, nil
}

// getSimpleInput provides a fallback input method for Windows
func getSimpleInput(label string, in io.Reader) (string, error) {
	fmt.Print(promptStyle.Render(label + ": "))

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	name := strings.TrimSpace(line)
	if name == "" {
		return "", fmt.Errorf("series name cannot be empty")
	}
	fmt.Println(successStyle.Render("✓ Series name received: " + name))
	return name, nil
}
