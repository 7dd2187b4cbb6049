package main

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fglog/fglog-go/pkg/fglog/event"
)

// registerEventTypeCompletion completes a comma-separated event type flag.
// The completion command itself is cobra's default one.
func registerEventTypeCompletion(cmd *cobra.Command, flagName string) {
	_ = cmd.RegisterFlagCompletionFunc(flagName, completeEventTypes(flagName))
}

// completeEventTypes offers the event types not yet listed, either earlier
// in the word being completed or in an earlier use of the flag. Each
// candidate repeats the already typed head so the shell replaces the whole
// word.
func completeEventTypes(flagName string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		const directive = cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp

		head, last := "", toComplete
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			head, last = toComplete[:i+1], toComplete[i+1:]
		}
		last = strings.ToLower(strings.TrimSpace(last))

		listed := strings.Split(head, ",")
		if prior, err := cmd.Flags().GetStringSlice(flagName); err == nil {
			listed = append(listed, prior...)
		}
		taken := func(name string) bool {
			return slices.ContainsFunc(listed, func(v string) bool {
				t, ok := event.ParseType(v)
				return ok && string(t) == name
			})
		}

		var out []string
		for _, name := range ValidEventTypeNames() {
			if strings.HasPrefix(name, last) && !taken(name) {
				out = append(out, head+name)
			}
		}
		return out, directive
	}
}
