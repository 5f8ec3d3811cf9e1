package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dndOpts struct {
	quiet bool // Suppress output, return exit code only
}

// dndCmd represents the dnd command group.
var dndCmd = &cobra.Command{
	Use:   "dnd",
	Short: "Manage Do Not Disturb mode",
	Long: `Manage Do Not Disturb (DnD) mode for dunstd.

DnD is the daemon's pause level (spec EXPANSION, "pause levels as an
integer, not a bool"): while paused, incoming notifications are queued
in waiting instead of being displayed.

Use 'dunstctl dnd status' to check the current state.
Use 'dunstctl dnd on' to enable DnD mode.
Use 'dunstctl dnd off' to disable DnD mode.
Use 'dunstctl dnd toggle' to toggle DnD mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dndStatusRun(cmd, args)
	},
}

var dndOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable Do Not Disturb mode",
	Long:  `Enable Do Not Disturb mode. Notification popups and sounds will be suppressed.`,
	RunE:  dndOnRun,
}

var dndOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable Do Not Disturb mode",
	Long:  `Disable Do Not Disturb mode. Notification popups and sounds will resume.`,
	RunE:  dndOffRun,
}

var dndToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle Do Not Disturb mode",
	Long:  `Toggle Do Not Disturb mode between enabled and disabled.`,
	RunE:  dndToggleRun,
}

var dndStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Do Not Disturb status",
	Long:  `Show whether Do Not Disturb mode is currently enabled or disabled.`,
	RunE:  dndStatusRun,
}

func init() {
	dndCmd.AddCommand(dndOnCmd)
	dndCmd.AddCommand(dndOffCmd)
	dndCmd.AddCommand(dndToggleCmd)
	dndCmd.AddCommand(dndStatusCmd)

	for _, cmd := range []*cobra.Command{dndCmd, dndOnCmd, dndOffCmd, dndToggleCmd, dndStatusCmd} {
		cmd.Flags().BoolVarP(&dndOpts.quiet, "quiet", "q", false,
			"Suppress output, return exit code only (0=off, 1=on)")
	}

	rootCmd.AddCommand(dndCmd)
}

func dndOnRun(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return reportDndErr(err)
	}
	if err := c.SetPauseLevel(1); err != nil {
		return reportDndErr(err)
	}
	if !dndOpts.quiet {
		fmt.Println("Do Not Disturb: enabled")
	}
	os.Exit(1)
	return nil
}

func dndOffRun(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return reportDndErr(err)
	}
	if err := c.SetPauseLevel(0); err != nil {
		return reportDndErr(err)
	}
	if !dndOpts.quiet {
		fmt.Println("Do Not Disturb: disabled")
	}
	return nil
}

func dndToggleRun(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return reportDndErr(err)
	}

	st, err := c.GetStatus()
	if err != nil {
		return reportDndErr(err)
	}

	newLevel := 0
	if !st.Paused {
		newLevel = 1
	}
	if err := c.SetPauseLevel(newLevel); err != nil {
		return reportDndErr(err)
	}

	if !dndOpts.quiet {
		if newLevel > 0 {
			fmt.Println("Do Not Disturb: enabled")
		} else {
			fmt.Println("Do Not Disturb: disabled")
		}
	}

	if newLevel > 0 {
		os.Exit(1)
	}
	return nil
}

func dndStatusRun(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return reportDndErr(err)
	}

	st, err := c.GetStatus()
	if err != nil {
		return reportDndErr(err)
	}

	if !dndOpts.quiet {
		if st.Paused {
			fmt.Printf("Do Not Disturb: enabled (level %d)\n", st.PauseLevel)
		} else {
			fmt.Println("Do Not Disturb: disabled")
		}
		if st.Fullscreen {
			fmt.Println("  Fullscreen active")
		}
	}

	if st.Paused {
		os.Exit(1)
	}
	return nil
}

func reportDndErr(err error) error {
	if !dndOpts.quiet {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	return err
}
