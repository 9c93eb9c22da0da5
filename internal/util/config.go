package util

import "github.com/spf13/viper"

// ColorsEnabled returns whether colored log output is enabled
// Colors can be disabled with the --no-color flag
func ColorsEnabled() bool {
	return !viper.GetBool("no-color")
}

// IncludeFlagged returns whether promotion should include staging items
// carrying a duplicate_id flag
// Enabled with the --include-flagged flag
func IncludeFlagged() bool {
	return viper.GetBool("include-flagged")
}
