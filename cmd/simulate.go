package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/phone-core/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	conversationHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	userLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	characterLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	messageBodyStyle = lipgloss.NewStyle().
				Padding(0, 2)

	sequenceBreakStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Replay a scripted conversation scenario",
	Long: `Run a YAML scenario (roster, strategy, scripted user turns and canned
replies) through the conversation engine and print the resulting log.

When --db is given, messages are mirrored into that transcript database;
otherwise an in-memory mirror is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := internal.LoadScenario(args[0])
		if err != nil {
			return err
		}

		mirror, cleanup, err := openMirror()
		if err != nil {
			return err
		}
		defer cleanup()

		store, err := scn.Run(mirror, stderrNotifier{})
		if err != nil {
			return err
		}

		printConversation(scn.Key(), store.List(scn.Key()))
		return nil
	},
}

// printConversation renders a message log with sequence grouping
func printConversation(key internal.ConversationKey, messages []internal.Message) {
	fmt.Println(conversationHeaderStyle.Render(key.String()))

	for _, msg := range messages {
		if msg.FirstInSequence {
			author := msg.ParticipantName
			if author == "" {
				author = msg.Sender.String()
			}
			style := characterLineStyle
			if msg.Sender == internal.SenderUser {
				style = userLineStyle
			}
			fmt.Println(style.Render(author) + sequenceBreakStyle.Render(fmt.Sprintf("  #%d", msg.ID)))
		}
		suffix := ""
		if msg.Edited {
			suffix = sequenceBreakStyle.Render(" (edited)")
		}
		fmt.Println(messageBodyStyle.Render(msg.Text) + suffix)
	}
}

// openMirror returns the transcript mirror selected by the --db flag
func openMirror() (internal.TranscriptMirror, func(), error) {
	if transcriptPath == "" {
		return internal.NewMemoryMirror(), func() {}, nil
	}
	db, err := internal.OpenTranscriptDB(transcriptPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open transcript database: %w", err)
	}
	return internal.NewSQLiteMirror(db), func() { _ = db.Close() }, nil
}

// stderrNotifier prints engine notifications to stderr
type stderrNotifier struct{}

func (stderrNotifier) Notify(level internal.NotifyLevel, message string) {
	fmt.Fprintf(os.Stderr, "[notice] %s\n", message)
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
