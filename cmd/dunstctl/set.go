package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/dunstd/internal/model"
)

var setOpts struct {
	stdin bool // Read ids from stdin

	dismiss bool // Close (user-dismissed)
	pop     bool // Replay from history back to waiting
	all     bool // Dismiss every waiting and displayed record
}

var setCmd = &cobra.Command{
	Use:   "set [id...]",
	Short: "Close or replay live notifications",
	Long: `Act on notifications currently held by a running dunstd.

Ids can be provided as positional arguments or via stdin (--stdin), one
numeric id per line (the format dunstctl get --format ids emits).

Examples:
  # Dismiss a specific notification
  dunstctl set 42 --dismiss

  # Dismiss several
  dunstctl set 42 43 44 --dismiss

  # Dismiss everything matching a filter
  dunstctl get --app discord --format ids | dunstctl set --stdin --dismiss

  # Replay a history entry back to waiting
  dunstctl set 42 --pop

  # Dismiss everything currently waiting or displayed
  dunstctl set --all`,
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().BoolVar(&setOpts.stdin, "stdin", false,
		"Read ids from stdin, one per line")
	setCmd.Flags().BoolVar(&setOpts.dismiss, "dismiss", false,
		"Close the notification(s) as user-dismissed")
	setCmd.Flags().BoolVar(&setOpts.pop, "pop", false,
		"Replay the notification(s) from history back to waiting")
	setCmd.Flags().BoolVar(&setOpts.all, "all", false,
		"Dismiss every waiting and displayed record (ignores any ids)")
}

func runSet(cmd *cobra.Command, args []string) error {
	if setOpts.all {
		if setOpts.dismiss || setOpts.pop {
			return fmt.Errorf("--all cannot be combined with --dismiss or --pop")
		}
		c, err := getClient()
		if err != nil {
			return err
		}
		if err := c.PushAll(); err != nil {
			return fmt.Errorf("failed to dismiss all: %w", err)
		}
		fmt.Println("dismissed all waiting and displayed notifications")
		return nil
	}

	if setOpts.dismiss == setOpts.pop {
		return fmt.Errorf("specify exactly one action: --dismiss or --pop")
	}

	idStrs := args
	if setOpts.stdin {
		stdinIDs, err := readIDsFromStdin()
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		idStrs = append(idStrs, stdinIDs...)
	}
	if len(idStrs) == 0 {
		return fmt.Errorf("no notification ids provided")
	}

	ids, err := parseIDs(idStrs)
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	var successCount, failCount int
	for _, id := range ids {
		var err error
		if setOpts.dismiss {
			err = c.Close(id, model.ReasonUserDismissed)
		} else {
			err = c.PopHistoryByID(id)
		}
		if err != nil {
			logger.Warn("failed to update notification", "id", id, "error", err)
			failCount++
		} else {
			successCount++
		}
	}

	action := "dismissed"
	if setOpts.pop {
		action = "replayed"
	}

	if failCount > 0 {
		fmt.Fprintf(os.Stderr, "%s %d notifications, %d failed\n", action, successCount, failCount)
	} else {
		fmt.Printf("%s %d notifications\n", action, successCount)
	}

	return nil
}

func parseIDs(idStrs []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(idStrs))
	seen := make(map[uint32]struct{}, len(idStrs))
	for _, s := range idStrs {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid notification id %q: %w", s, err)
		}
		id := uint32(v)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// readIDsFromStdin reads one id per line from stdin.
func readIDsFromStdin() ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	return ids, scanner.Err()
}
