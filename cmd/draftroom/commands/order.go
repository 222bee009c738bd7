package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/draftroom/internal/engine"
	"github.com/DoyleJ11/draftroom/internal/seed"
)

func newOrderCmd() *cobra.Command {
	var (
		rounds int
		style  string
	)
	cmd := &cobra.Command{
		Use:   "order SEED_FILE",
		Short: "Print the turn order a seed file produces",
		Long: `Print the turn order a seed file produces.

When the file lists no explicit order, one is generated from its
participants using --rounds and --style (unless the file sets them).

Examples:
  draftroom order draft.yaml
  draftroom order draft.yaml --rounds 3 --style snake`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := engine.ParseOrderStyle(style)
			if err != nil {
				return err
			}
			s, err := seed.FileSource{
				Path:     args[0],
				Defaults: seed.OrderDefaults{Rounds: rounds, Style: st},
			}.Load(cmd.Context())
			if err != nil {
				return err
			}

			names := make(map[string]string, len(s.Participants))
			for _, p := range s.Participants {
				names[p.ID] = p.Name
			}

			out := cmd.OutOrStdout()
			round := 0
			for _, slot := range s.Order {
				if slot.Round != round {
					round = slot.Round
					cyan.Fprintf(out, "Round %d\n", round)
				}
				name := names[slot.ParticipantID]
				if name == "" {
					name = slot.ParticipantID
				}
				fmt.Fprintf(out, "  %3d  %s\n", slot.PickNumber, name)
			}
			green.Fprintf(out, "%d turns, %d participants\n", len(s.Order), len(s.Participants))
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 5, "Rounds to generate when the file has no order")
	cmd.Flags().StringVar(&style, "style", "linear", "Generated order style: linear or snake")
	return cmd
}
