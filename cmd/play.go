package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/goosewin/visionquest/internal/config"
	"github.com/goosewin/visionquest/internal/console"
	"github.com/goosewin/visionquest/internal/game"
	"github.com/goosewin/visionquest/internal/vision"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var playModel string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the game in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playModel, "model", "m", vision.DefaultModel, "Vision model used to judge images")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctrl, err := newController(cmd, stringOrConfig(cmd, "model", playModel, "game.vision_model"))
	if err != nil {
		return err
	}
	defer ctrl.Wait()

	g, err := console.New(console.Options{
		Controller:    ctrl,
		Session:       game.NewSession(uuid.NewString()),
		Out:           os.Stdout,
		ThumbnailSize: config.Int("game.thumbnail"),
		Colors:        !color.NoColor,
	})
	if err != nil {
		return err
	}
	return g.Play(cmd.Context())
}
