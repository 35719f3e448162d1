package cmd

import (
	"fmt"

	"github.com/iksnae/phone-core/internal"
	"github.com/spf13/cobra"
)

// reconstructCmd represents the reconstruct command
var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <conversation-key>",
	Short: "Rebuild a conversation from its transcript entries",
	Long: `Cold-start reconstruction: rebuild a conversation's message log from
the tagged entries in a transcript database and print the result. This
is the same code path the engine runs when it opens a conversation with
an empty store after a reload.`,
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

		store := internal.NewConversationStore()
		count, err := internal.NewReconciler(store).ReconstructFromTranscript(key, entries)
		if err != nil {
			return err
		}

		printConversation(key, store.List(key))
		internal.LogInfo("Reconstructed %d message(s) for %s", count, key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconstructCmd)
}
