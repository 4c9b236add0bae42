package config

// Defaults returns the default configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"planning_dir":  "planning",
		"artifacts_dir": "planning/artifacts",
		// 13 weeks matches the quarterly planning window the ledgers are
		// organized around.
		"weeks": 13,
		// column_budget 0 means size to the terminal at startup, with a
		// fixed fallback when stdout is not a terminal.
		"column_budget":     0,
		"label_width":       30,
		"lane_mode":         "collapsed",
		"board":             "default",
		"cascade_reset":     false,
		"watch_debounce_ms": 400,
		"log_level":         "info",
		"log_format":        "text",
	}
}
