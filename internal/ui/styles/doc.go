// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides colors and Lip Gloss styles for the smartfix TUI.
//
// Colors are adaptive and follow the terminal background. Status text always
// pairs a color with an ASCII indicator:
//
//	fmt.Println(styles.RenderWarning("Session about to expire"))
//	// [!] Session about to expire
//
// A Theme bundles every style the views use:
//
//	theme := styles.NewTheme()
//	box := theme.WarningBox.Render(content)
package styles
