// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// componentMap links config directory names to the component they indicate.
var componentMap = map[string]string{
	"hypr":   "hyprland",
	"waybar": "waybar",
	"rofi":   "rofi",
	"kitty":  "kitty",
	"ags":    "ags",
}

// featureKeywords maps substrings of the Hyprland config to feature tags.
var featureKeywords = map[string]string{
	"animation": "animations",
	"blur":      "blur",
	"shadow":    "shadows",
	"rounding":  "rounded",
	"opacity":   "transparency",
}

// DetectComponents implements [Archiver]. Best-effort static inspection:
// a component is reported when its config directory exists. Never fails;
// at worst the list is empty.
func (a *archiver) DetectComponents() []string {
	var components []string
	for dir, component := range componentMap {
		if _, err := os.Stat(filepath.Join(a.configBase, dir)); err == nil {
			components = append(components, component)
		}
	}
	sort.Strings(components)
	return components
}

// DetectFeatures implements [Archiver]. Scans the Hyprland config for known
// feature keywords. Any read failure degrades to an empty list.
func (a *archiver) DetectFeatures() []string {
	content, err := os.ReadFile(filepath.Join(a.configBase, "hypr", "hyprland.conf"))
	if err != nil {
		return nil
	}

	text := string(content)
	var features []string
	for keyword, feature := range featureKeywords {
		if strings.Contains(text, keyword) {
			features = append(features, feature)
		}
	}
	sort.Strings(features)
	return features
}
