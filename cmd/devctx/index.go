package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/embedding"
	"github.com/HendryAvila/devctx/internal/ingest"
	"github.com/HendryAvila/devctx/internal/knowledge"
)

func (c *cli) indexCmd() *cobra.Command {
	var (
		defaults ingest.Defaults
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Index a directory of markdown documents into the knowledge base",
		Long: `Index every .md file under dir. Each file becomes one document whose
application, category and title come from its YAML front matter, then the
flags, then its path. With --watch, changed files are reindexed until
interrupted.`,
		Example: `  devctx index ./docs/rac --application rac
  devctx index ./docs --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := c.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := cfg.Validate(); err != nil {
				return err
			}
			store, err := knowledge.Open(cfg.KnowledgeBase)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			embedder, err := embedding.New(ctx, cfg.EmbeddingConfig(embedding.TaskRetrievalDocument))
			if err != nil {
				return err
			}

			ix := ingest.NewIndexer(embedder, store, log)
			sum, err := ix.IndexDir(ctx, args[0], defaults)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Indexed %d document(s), %d failed.\n", sum.Indexed, len(sum.Failed))
			if !watch {
				if len(sum.Failed) > 0 {
					return fmt.Errorf("%d document(s) failed to index", len(sum.Failed))
				}
				return nil
			}

			w, err := ix.NewWatcher(args[0], defaults)
			if err != nil {
				return err
			}
			log.Info("watching for changes", zap.String("dir", args[0]))
			return w.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&defaults.Application, "application", "", "application for documents without one in front matter (default "+ingest.DefaultApplication+")")
	f.StringVar(&defaults.Category, "category", "", "category for documents without one in front matter (default: parent directory)")
	f.BoolVar(&watch, "watch", false, "keep running and reindex files as they change")
	return cmd
}
