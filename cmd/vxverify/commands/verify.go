package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVerifyCmd() *cobra.Command {
	var (
		gameID     int64
		gameHash   string
		clientSeed string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the oracle signature for one game round",
		Example: `  vxverify verify --game-id 1234 --game-hash 8003ad64ebc2d854e7e60058c62bef82254469d4e053f96772bb561ec72ea0fd
  vxverify verify --game-id 1234 --game-hash <hash> --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			res, verr := a.svc.VerifyRound(cmd.Context(), gameID, gameHash)
			a.logger.Info("verify",
				zap.Int64("round", gameID),
				zap.Bool("verified", verr == nil && res.Verified()),
			)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), newRoundReport(gameID, gameHash, clientSeed, res, verr)); err != nil {
					return err
				}
			} else if verr == nil {
				newPrinter(cmd.OutOrStdout()).roundResult(res, clientSeed)
			}

			if verr != nil {
				return verr
			}
			if !res.Verified() {
				return fmt.Errorf("round %d: %s: %w", gameID, res.Status(), errNotVerified)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&gameID, "game-id", -1, "round index to verify")
	cmd.Flags().StringVar(&gameHash, "game-hash", "", "revealed round hash (64 hex characters)")
	cmd.Flags().StringVar(&clientSeed, "client-seed", "", "client seed, echoed in the report only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("game-id")
	_ = cmd.MarkFlagRequired("game-hash")

	return cmd
}
