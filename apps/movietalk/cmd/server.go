package movietalk

import (
	"net/http"
	"path"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nothinking/movietalk/api"
	"github.com/nothinking/movietalk/catalog"
	"github.com/nothinking/movietalk/store"
)

var serveCmd = &cobra.Command{
	Use:  "serve",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config, err := LoadConfig()
		cobra.CheckErr(err)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = config.Server.Listen
		}
		dataDir, _ := cmd.Flags().GetString("data")
		if dataDir == "" {
			dataDir = config.Data
		}

		cat, err := catalog.Load(catalog.NewLocalFSObjectReader(dataDir))
		cobra.CheckErr(err)

		files := store.NewFileStore(path.Join(dataDir, "edited"))
		httpHandler := api.NewApiHandler(files, cat)

		log.Info().Str("addr", addr).Str("data", dataDir).Msg("Listening")
		err = http.ListenAndServe(addr, httpHandler)
		cobra.CheckErr(err)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8991", "address to listen on")
	serveCmd.Flags().String("data", "data", "path to the data directory")
}
