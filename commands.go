// commands.go
//
// Maintenance subcommands.
//   memorama scores list [filter] [--difficulty d]
//   memorama scores clear --yes
//   memorama hash-password [password]   (reads stdin when no argument)

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/leaderboard"
)

func newScoresCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Inspect or clear the stored leaderboard",
	}

	var difficulty string
	listCmd := &cobra.Command{
		Use:   "list [filter]",
		Short: "Print the leaderboard, optionally filtered by player name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d cards.Difficulty
			if difficulty != "" {
				parsed, err := cards.ParseDifficulty(difficulty)
				if err != nil {
					return err
				}
				d = parsed
			}
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			board, closeKV, err := openBoard(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeKV.Close()
			return printScores(cmd.OutOrStdout(), board.Filter(filter, d))
		},
	}
	listCmd.Flags().StringVar(&difficulty, "difficulty", "", "only show easy|medium|hard")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every leaderboard entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the leaderboard without --yes")
			}
			board, closeKV, err := openBoard(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeKV.Close()
			board.Clear(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "leaderboard cleared")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}

func openBoard(cmd *cobra.Command, cfg *Config) (*leaderboard.Board, io.Closer, error) {
	kv, closer, err := openKV(cfg)
	if err != nil {
		return nil, nil, err
	}
	return leaderboard.Open(cmd.Context(), kv, cfg.app), closer, nil
}

func printScores(w io.Writer, recs []leaderboard.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tSCORE\tDIFFICULTY\tDATE\tID")
	for i, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			i+1, r.PlayerName, r.Score, r.Difficulty, r.Timestamp.Format("2006-01-02 15:04"), r.ID)
	}
	return tw.Flush()
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for --admin-password-hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw := ""
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			if len(pw) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(h))
			return nil
		},
	}
}
