package cli

import (
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"
	"github.com/spf13/cobra"

	"pulpit/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the embedding consumer",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, deps, a, err := setup(ctx)
	if err != nil {
		exitWith(ExitBootstrapFail, "ERROR: "+err.Error())
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	if err := a.RebuildIndex(ctx); err != nil {
		exitWith(ExitBootstrapFail, "ERROR: "+err.Error())
	}

	// Embedding consumer: picks up chunk.embed tasks published by ingestion
	// and writes vectors to Weaviate.
	nsqCfg := nsq.NewConfig()
	consumer, err := nsq.NewConsumer(config.TopicChunkEmbed, "embedder", nsqCfg)
	if err != nil {
		exitWith(ExitBootstrapFail, "ERROR: create NSQ consumer: "+err.Error())
	}
	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		return a.EmbedConsumer.HandleMessage(m)
	}))
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		exitWith(ExitBootstrapFail, "ERROR: connect to nsqlookupd: "+err.Error())
	}
	defer consumer.Stop()

	if err := a.Run(ctx, cfg.ServerPort); err != nil {
		exitWith(ExitGenericError, "ERROR: server failed: "+err.Error())
	}
	return nil
}
