package movietalk

import (
	"github.com/spf13/cobra"

	"github.com/nothinking/movietalk/ingest"
)

var importCmd = &cobra.Command{
	Use:  "import input_dir data_dir",
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := LoadConfig()
		cobra.CheckErr(err)

		channel, _ := cmd.Flags().GetString("channel")
		if channel == "" {
			channel = config.Import.Channel
		}

		imp := ingest.NewImporter(ingest.Config{Channel: channel})
		err = imp.Run(args[0], args[1])
		cobra.CheckErr(err)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("channel", "", "channel name stamped on imported videos")
}
