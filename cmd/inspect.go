package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/phone-core/internal"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <conversation-key>",
	Short: "Dump tagged transcript entries for a conversation",
	Long: `List the transcript entries this plugin appended for one conversation,
straight from the transcript database. The key is "individual:<id>" or
"group:<id>".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseConversationKey(args[0])
		if err != nil {
			return err
		}
		if transcriptPath == "" {
			return fmt.Errorf("--db is required")
		}

		db, err := internal.OpenTranscriptDB(transcriptPath)
		if err != nil {
			return fmt.Errorf("failed to open transcript database: %w", err)
		}
		defer db.Close()

		entries, err := internal.NewSQLiteMirror(db).ListTagged(key)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REF\tSENDER\tAUTHOR\tTEXT")
		for _, e := range entries {
			author := e.ParticipantName
			if author == "" {
				author = e.Sender.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Ref, e.Sender, author, truncate(e.Text, 60))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		internal.LogInfo("Listed %d transcript entr(ies) for %s", len(entries), key)
		return nil
	},
}

// parseConversationKey parses "kind:id" into a ConversationKey
func parseConversationKey(s string) (internal.ConversationKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return internal.ConversationKey{}, fmt.Errorf("invalid conversation key %q (expected individual:<id> or group:<id>)", s)
	}
	switch kind {
	case "individual":
		return internal.IndividualKey(id), nil
	case "group":
		return internal.GroupKey(id), nil
	default:
		return internal.ConversationKey{}, fmt.Errorf("unknown conversation kind %q", kind)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
