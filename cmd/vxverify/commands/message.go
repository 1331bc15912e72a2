package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vxverify/vxverify/internal/vx"
)

func newMessageCmd() *cobra.Command {
	var (
		gameHash string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "message",
		Short: "Print the message the oracle signs for a round hash (offline)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			params, err := cfg.Params()
			if err != nil {
				return err
			}

			msg, err := vx.MessageHex(params, gameHash)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !explain {
				fmt.Fprintln(out, msg)
				return nil
			}
			fmt.Fprintf(out, "sha256(salt):       %s\n", msg[:64])
			fmt.Fprintf(out, "sha256(round hash): %s\n", msg[64:128])
			fmt.Fprintf(out, "utf8(hex(salt)):    %s\n", msg[128:])
			fmt.Fprintf(out, "message:            %s\n", msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&gameHash, "game-hash", "", "revealed round hash (64 hex characters)")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the three message segments")
	_ = cmd.MarkFlagRequired("game-hash")

	return cmd
}
