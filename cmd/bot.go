package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the WhatsApp bot and the status scheduler",
	Long:  `Connects to WhatsApp (printing a login QR code on first run), listens for commands and publishes scheduled status updates.`,
	Run:   runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initApp(ctx); err != nil {
		logrus.Fatalf("[APP] %v", err)
	}

	// Workers first: connecting delivers the offline backlog right away.
	workerPool.Start(ctx)

	if err := waAdapter.Start(ctx); err != nil {
		stopApp()
		logrus.Fatalf("[WHATSAPP] %v", err)
	}

	taskScheduler.StartLoop(ctx)

	var restErr chan error
	if cfg.App.RestEnabled {
		app, err := newRestApp()
		if err != nil {
			stopApp()
			logrus.Fatalf("[REST] %v", err)
		}
		restErr = make(chan error, 1)
		go func() {
			logrus.Infof("[REST] Listening on :%s", cfg.App.Port)
			restErr <- app.Listen(":" + cfg.App.Port)
		}()
		defer func() {
			if err := app.Shutdown(); err != nil {
				logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
			}
		}()
	}

	logrus.Infof("[APP] Bot running, send %shelp to this account for the command list", cfg.Bot.Prefix)

	select {
	case <-ctx.Done():
		logrus.Info("[APP] Reception of termination signal, shutting down gracefully...")
	case err := <-restErr:
		logrus.WithError(err).Error("[REST] Server stopped")
		stop()
	}

	taskScheduler.Wait()
	stopApp()
}
