package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"evidence-hub/importer"
	"evidence-hub/infrastructure"
	"evidence-hub/interfaces"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var dispatcher interfaces.SyncDispatcher
	var inline *interfaces.InlineDispatcher
	switch a.cfg.Sync.Mode {
	case "queue":
		rmq, err := infrastructure.NewRabbitMQ(a.cfg.RabbitMQ, a.log)
		if err != nil {
			return err
		}
		defer rmq.Close()
		dispatcher = interfaces.NewQueueDispatcher(rmq)
	default:
		inline = interfaces.NewInlineDispatcher(a.runner, a.log)
		dispatcher = inline
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(a))
	interfaces.NewHTTPHandler(router, interfaces.Dependencies{
		Evidence:     a.evidence,
		Integrations: a.integrations,
		Roles:        a.roles,
		Runner:       a.runner,
		Parser:       importer.NewParser(a.defaults),
		Extractor:    infrastructure.NewTextExtractor(a.log),
		G2:           a.g2,
		Dispatcher:   dispatcher,
		Log:          a.log,
	})

	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-cmd.Context().Done():
		a.log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.log.WithError(err).Warn("server shutdown")
		}
	}
	if inline != nil {
		inline.Wait()
	}
	return nil
}

func requestLogger(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}
