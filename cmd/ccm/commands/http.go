package commands

import (
	"fmt"
	"strings"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ccm/internal/api"
	"ccm/internal/simulation"
)

var (
	httpAddr string
	openUI   bool
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the estimators over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if httpAddr != "" {
			cfg.HTTPAddr = httpAddr
		}
		service, err := simulation.NewService(cfg)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		if openUI {
			url := localURL(cfg.HTTPAddr) + "/interventions"
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Could not open browser")
			}
		}
		return api.NewServer(service, cfg.FrontEndURL).ListenAndServe(ctx, cfg.HTTPAddr)
	},
}

// localURL turns a listen address into a URL a local browser can reach.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return fmt.Sprintf("http://%s", addr)
}

func init() {
	httpCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (default from CCM_HTTP_ADDR)")
	httpCmd.Flags().BoolVar(&openUI, "open", false, "open the intervention list in a browser")
	rootCmd.AddCommand(httpCmd)
}
