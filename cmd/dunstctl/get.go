package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/dunstd/internal/adapter/output"
	"github.com/jmylchreest/dunstd/internal/control"
	"github.com/jmylchreest/dunstd/internal/core"
)

var getOpts struct {
	// Filter options
	since   string
	app     string
	urgency string
	limit   int
	search  string

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format   string
	field    string
	template string

	// Lookup options
	index int
	id    uint32
}

var getCmd = &cobra.Command{
	Use:   "get [index|id]",
	Short: "Query and output the live notification queues",
	Long: `Query dunstd's waiting, displayed, and history queues and output in
various formats.

Without arguments, outputs all notifications (waiting, then displayed, then
history) in dmenu format (suitable for fuzzel, walker, rofi, etc.).

With a positive integer argument, outputs the notification at that
1-based index (counted after filters and sort are applied). Use --id to
look up a notification by its numeric id.

Examples:
  # List all notifications in dmenu format
  dunstctl get

  # Filter by app and time
  dunstctl get --app firefox --since 1h

  # Get specific notification by index
  dunstctl get 3

  # Get notification and output body field
  dunstctl get 3 --field body

  # Output as JSON
  dunstctl get --format json

  # Copy a notification's body to the clipboard
  dunstctl get 3 --field body | wl-copy`,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	// Filter flags
	getCmd.Flags().StringVar(&getOpts.since, "since", "",
		"Show notifications from the last duration (e.g., 1h, 7d, 1w)")
	getCmd.Flags().StringVar(&getOpts.app, "app", "",
		"Filter by application name (exact match)")
	getCmd.Flags().StringVar(&getOpts.urgency, "urgency", "",
		"Filter by urgency (low, normal, critical)")
	getCmd.Flags().IntVarP(&getOpts.limit, "limit", "n", 0,
		"Maximum number of notifications to show (0=unlimited)")
	getCmd.Flags().StringVarP(&getOpts.search, "search", "s", "",
		"Search in summary and body")

	// Sort flags
	getCmd.Flags().StringVar(&getOpts.sortBy, "sort", "timestamp",
		"Sort by field (timestamp, app, urgency)")
	getCmd.Flags().StringVar(&getOpts.sortOrder, "order", "desc",
		"Sort order (asc, desc)")

	// Output flags
	getCmd.Flags().StringVarP(&getOpts.format, "format", "f", "dmenu",
		"Output format (dmenu, json, plain, ids)")
	getCmd.Flags().StringVar(&getOpts.field, "field", "",
		"Output single field from notification (id, app, summary, body, all)")
	getCmd.Flags().StringVar(&getOpts.template, "template", "",
		"Custom Go template for output formatting")

	// Lookup flags
	getCmd.Flags().IntVar(&getOpts.index, "index", 0,
		"Lookup notification by 1-based index")
	var idFlag string
	getCmd.Flags().StringVar(&idFlag, "id", "",
		"Lookup notification by numeric id")
	getCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if idFlag == "" {
			return nil
		}
		id, err := strconv.ParseUint(idFlag, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid --id %q: %w", idFlag, err)
		}
		getOpts.id = uint32(id)
		return nil
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	// Check for positional argument (index or id)
	if len(args) > 0 {
		arg := args[0]
		if idx, err := strconv.Atoi(arg); err == nil && idx > 0 {
			getOpts.index = idx
		} else if id, err := strconv.ParseUint(arg, 10, 32); err == nil {
			getOpts.id = uint32(id)
		} else {
			return fmt.Errorf("%q is neither a valid index nor a numeric id", arg)
		}
	}

	notifications, err := fetchNotifications()
	if err != nil {
		return err
	}

	if getOpts.index > 0 || getOpts.id != 0 {
		return handleLookup(notifications)
	}

	notifications = applyFilters(notifications)
	applySort(notifications)

	return outputNotifications(notifications)
}

// fetchNotifications retrieves the current queue snapshot from dunstd.
func fetchNotifications() ([]control.RecordView, error) {
	c, err := getClient()
	if err != nil {
		return nil, err
	}

	dump, err := c.Dump()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	notifications := dump.AllRecords()
	logger.Debug("fetched notifications", "count", len(notifications))

	return notifications, nil
}

// applyFilters applies filter options to notifications.
func applyFilters(notifications []control.RecordView) []control.RecordView {
	opts := core.FilterOptions{
		AppFilter: getOpts.app,
		Limit:     getOpts.limit,
	}

	if getOpts.since != "" {
		d, err := core.ParseDuration(getOpts.since)
		if err != nil {
			logger.Warn("invalid since duration", "value", getOpts.since, "error", err)
		} else {
			opts.Since = d
		}
	}

	if getOpts.urgency != "" {
		u, err := core.ParseUrgency(getOpts.urgency)
		if err != nil {
			logger.Warn("invalid urgency", "value", getOpts.urgency, "error", err)
		} else {
			opts.Urgency = &u
		}
	}

	notifications = core.Filter(notifications, opts)

	if getOpts.search != "" {
		notifications = core.Search(notifications, getOpts.search)
	}

	return notifications
}

// applySort sorts notifications based on options.
func applySort(notifications []control.RecordView) {
	field, _ := core.ParseSortField(getOpts.sortBy)
	order, _ := core.ParseSortOrder(getOpts.sortOrder)

	core.Sort(notifications, core.SortOptions{
		Field: field,
		Order: order,
	})
}

// handleLookup handles single notification lookup and output.
func handleLookup(notifications []control.RecordView) error {
	var n *control.RecordView

	if getOpts.index > 0 {
		// Apply filters and sort first to get consistent indexing.
		notifications = applyFilters(notifications)
		applySort(notifications)
		n = core.LookupByIndex(notifications, getOpts.index)
		if n == nil {
			return fmt.Errorf("notification at index %d not found", getOpts.index)
		}
	} else {
		n = core.LookupByID(notifications, getOpts.id)
		if n == nil {
			return fmt.Errorf("notification with id %d not found", getOpts.id)
		}
	}

	if getOpts.field != "" {
		fmt.Println(output.FormatField(n, getOpts.field))
		return nil
	}

	if getOpts.format == "dmenu" {
		getOpts.format = "json"
	}

	formatter := createFormatter()
	return formatter.Format(os.Stdout, []control.RecordView{*n})
}

// outputNotifications outputs the notification list.
func outputNotifications(notifications []control.RecordView) error {
	if len(notifications) == 0 {
		logger.Debug("no notifications to output")
		return nil
	}

	formatter := createFormatter()
	return formatter.Format(os.Stdout, notifications)
}

// createFormatter creates the output formatter based on options.
func createFormatter() output.Formatter {
	if strings.ToLower(getOpts.format) == "ids" {
		return output.NewIDsFormatter()
	}

	var format output.FormatType
	switch strings.ToLower(getOpts.format) {
	case "json":
		format = output.FormatJSON
	case "plain":
		format = output.FormatPlain
	default:
		format = output.FormatDmenu
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = getOpts.template

	if cfg != nil {
		if cfg.Templates.Dmenu != "" && opts.Template == "" {
			opts.Template = cfg.Templates.Dmenu
		}
	}

	return output.NewFormatter(format, opts)
}
