package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusOpts struct {
	all bool // Include history (acknowledged) notifications
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// queueCounts mirrors control.Dump's three queue lengths.
type queueCounts struct {
	Waiting   int
	Displayed int
	History   int
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output notification status in Waybar's custom module JSON format.

By default, shows only ACTIVE notifications - those currently displayed or
waiting to be displayed. Use --all to include history.

This is designed to be used with Waybar's custom module:

  "custom/notifications": {
    "exec": "dunstctl status",
    "interval": 5,
    "return-type": "json",
    "on-click": "dunstctl tui"
  }

The output includes:
  - text: Number of displayed and waiting notifications (plus history with --all)
  - alt: State class: critical when any notification is displayed, normal
    when notifications are only waiting, low when only history is counted,
    empty when there is nothing to count
  - tooltip: Breakdown by type (displayed/waiting/history)
  - class: Same value as alt, for CSS styling`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.all, "all", false,
		"Include history notifications in count")
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return outputStatus(WaybarStatus{Text: "", Alt: "error", Class: "error"})
	}

	dump, err := c.Dump()
	if err != nil {
		return outputStatus(WaybarStatus{Text: "", Alt: "error", Class: "error"})
	}

	counts := queueCounts{
		Waiting:   len(dump.Waiting),
		Displayed: len(dump.Displayed),
		History:   len(dump.History),
	}

	return outputStatus(generateStatusFromCounts(counts, statusOpts.all))
}

// generateStatusFromCounts creates a WaybarStatus from queue counts.
func generateStatusFromCounts(counts queueCounts, includeHistory bool) WaybarStatus {
	activeCount := counts.Displayed + counts.Waiting

	displayCount := activeCount
	if includeHistory {
		displayCount += counts.History
	}

	if displayCount == 0 {
		return WaybarStatus{
			Text:  "",
			Alt:   "empty",
			Class: "empty",
		}
	}

	urgencyClass := "normal"
	if activeCount == 0 {
		urgencyClass = "low" // Only history, already acknowledged
	} else if counts.Displayed > 0 {
		urgencyClass = "critical" // Notifications currently on screen
	}

	tooltip := buildCountsTooltip(counts, includeHistory)
	text := fmt.Sprintf("%d", displayCount)

	return WaybarStatus{
		Text:       text,
		Alt:        urgencyClass,
		Tooltip:    tooltip,
		Class:      urgencyClass,
		Percentage: min(displayCount, 100),
	}
}

// buildCountsTooltip creates a tooltip showing notification breakdown.
func buildCountsTooltip(counts queueCounts, includeHistory bool) string {
	var lines []string

	if counts.Displayed > 0 {
		lines = append(lines, fmt.Sprintf("Displayed: %d", counts.Displayed))
	}
	if counts.Waiting > 0 {
		lines = append(lines, fmt.Sprintf("Waiting: %d", counts.Waiting))
	}
	if includeHistory && counts.History > 0 {
		lines = append(lines, fmt.Sprintf("History: %d", counts.History))
	}

	if len(lines) == 0 {
		return "No notifications"
	}

	activeCount := counts.Displayed + counts.Waiting
	if activeCount > 0 {
		return fmt.Sprintf("%d active\n%s", activeCount, joinLines(lines))
	}

	return joinLines(lines)
}

func joinLines(lines []string) string {
	result := ""
	for i, line := range lines {
		if i > 0 {
			result += "\n"
		}
		result += line
	}
	return result
}

// outputStatus writes the status as JSON.
func outputStatus(status WaybarStatus) error {
	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(status)
}
