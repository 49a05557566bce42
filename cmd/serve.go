package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sw33tLie/spoilerguard/internal/server"
	"github.com/sw33tLie/spoilerguard/internal/utils"
	"github.com/sw33tLie/spoilerguard/pkg/proxy"
	"github.com/sw33tLie/spoilerguard/pkg/spoiler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local service and the filtering proxy",
	Long: `Run the local service (extension messaging API, settings API and warning
page) and a filtering HTTP proxy. Point your browser's HTTP proxy at the
proxy address to have navigations and pages checked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := viper.GetString("server.listen")
		proxyListen := viper.GetString("proxy.listen")
		noProxy, _ := cmd.Flags().GetBool("no-proxy")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, reg, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		bypass := proxy.NewBypass(proxy.DefaultBypassTTL)
		srv := server.New(reg, db, bypass, "http://"+listen,
			viper.GetString("server.username"), viper.GetString("server.password"))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Serve(ctx, listen)
		})
		if !noProxy {
			p := proxy.New(spoiler.NewDetector(reg, utils.Log), proxy.Config{
				BlockedURL: srv.BlockedPageURL(),
				Bypass:     bypass,
				Recorder:   db,
				Logger:     utils.Log,
			})
			g.Go(func() error {
				return server.ServeProxy(ctx, proxyListen, p, utils.Log)
			})
		}

		utils.Log.Infof("Warning page at %s", srv.BlockedPageURL())
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Local service listen address (default from config: server.listen)")
	serveCmd.Flags().String("proxy-listen", "", "Proxy listen address (default from config: proxy.listen)")
	serveCmd.Flags().Bool("no-proxy", false, "Only run the local service")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("proxy.listen", serveCmd.Flags().Lookup("proxy-listen"))
}
