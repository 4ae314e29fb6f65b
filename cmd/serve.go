package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leaf-doctor/internal/api/telegram"
	"leaf-doctor/internal/api/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Telegram bot",
	Long: `Starts the JSON HTTP API on HTTP_ADDR.
When TELEGRAM_TOKEN is set the Telegram bot runs alongside it.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, defaultLanguage, err := buildContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewRouter(web.NewHandler(c.DiagnosisService, defaultLanguage, logger.Named("http"))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP API listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, c.ConversationService, c.Catalog, logger.Named("telegram"))
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			logger.Info("Bot is running")
			return bot.Run(gctx)
		})
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, Telegram bot disabled")
	}

	return g.Wait()
}
