// Package theme handles CSS theme loading and hot-reload for dunstd.
// It supports loading themes from ~/.config/dunst/themes/ and provides
// an embedded default theme for use when no custom theme is configured.
package theme
