package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/devctx/internal/access"
	"github.com/HendryAvila/devctx/internal/knowledge"
	"github.com/HendryAvila/devctx/internal/version"
)

// withKnowledge opens the knowledge base for an administrative command.
// Embedding settings are not validated here.
func (c *cli) withKnowledge(fn func(ctx context.Context, store *knowledge.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := c.setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		store, err := knowledge.Open(cfg.KnowledgeBase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return fn(cmd.Context(), store)
	}
}

// withKeys opens the API-key store for an administrative command.
func (c *cli) withKeys(fn func(ctx context.Context, keys *access.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := c.setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		keys, err := access.Open(cfg.AccessDB, log)
		if err != nil {
			return err
		}
		defer func() { _ = keys.Close() }()
		return fn(cmd.Context(), keys)
	}
}

// --- scopes ---

func (c *cli) scopesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scopes",
		Short: "Manage the application scopes commands may target",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered scopes",
		Args:  cobra.NoArgs,
	}
	list.RunE = c.withKnowledge(func(ctx context.Context, store *knowledge.Store) error {
		scopes, err := store.ListScopes(ctx)
		if err != nil {
			return err
		}
		if len(scopes) == 0 {
			fmt.Fprintln(c.out, "No scopes registered.")
			return nil
		}
		for _, s := range scopes {
			state := "active"
			if !s.Active {
				state = "inactive"
			}
			fmt.Fprintf(c.out, "%-12s %-8s %s\n", s.Key, state, s.Description)
		}
		return nil
	})

	var name, description string
	add := &cobra.Command{
		Use:   "add <key>",
		Short: "Register a scope, or re-activate and update an existing one",
		Args:  cobra.ExactArgs(1),
	}
	add.RunE = func(cmd *cobra.Command, args []string) error {
		return c.withKnowledge(func(ctx context.Context, store *knowledge.Store) error {
			if err := store.UpsertScope(ctx, args[0], name, description); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Scope %q is active.\n", args[0])
			return nil
		})(cmd, args)
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&description, "description", "", "one-line description shown by list_scopes")

	toggle := func(use, short string, active bool) *cobra.Command {
		sub := &cobra.Command{Use: use + " <key>", Short: short, Args: cobra.ExactArgs(1)}
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			return c.withKnowledge(func(ctx context.Context, store *knowledge.Store) error {
				if err := store.SetScopeActive(ctx, args[0], active); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Scope %q %sd.\n", args[0], use)
				return nil
			})(cmd, args)
		}
		return sub
	}

	cmd.AddCommand(list, add,
		toggle("disable", "Stop accepting a scope in commands", false),
		toggle("enable", "Accept a previously disabled scope again", true),
	)
	return cmd
}

// --- stats ---

func (c *cli) statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base document counts",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.withKnowledge(func(ctx context.Context, store *knowledge.Store) error {
		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Documents:     %d\nActive scopes: %d\n", st.Documents, st.ActiveScopes)

		categories := make([]string, 0, len(st.ByCategory))
		for cat := range st.ByCategory {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			fmt.Fprintf(c.out, "  %-16s %d\n", cat, st.ByCategory[cat])
		}
		return nil
	})
	return cmd
}

// --- keys ---

func (c *cli) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for the HTTP transport",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a key and print it once",
		Args:  cobra.ExactArgs(1),
	}
	create.RunE = func(cmd *cobra.Command, args []string) error {
		return c.withKeys(func(ctx context.Context, keys *access.Store) error {
			plaintext, err := keys.Create(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s\n\nStore this key now; it cannot be shown again.\n", plaintext)
			return nil
		})(cmd, args)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List keys",
		Args:  cobra.NoArgs,
	}
	list.RunE = c.withKeys(func(ctx context.Context, keys *access.Store) error {
		all, err := keys.List(ctx)
		if err != nil {
			return err
		}
		for _, k := range all {
			state := "active"
			if !k.Active {
				state = "revoked"
			}
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = *k.LastUsedAt
			}
			fmt.Fprintf(c.out, "%-4d %-16s %-8s created %s, last used %s\n", k.ID, k.Name, state, k.CreatedAt, lastUsed)
		}
		return nil
	})

	revoke := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a key",
		Args:  cobra.ExactArgs(1),
	}
	revoke.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid key id %q", args[0])
		}
		return c.withKeys(func(ctx context.Context, keys *access.Store) error {
			if err := keys.Revoke(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Key %d revoked.\n", id)
			return nil
		})(cmd, args)
	}

	cmd.AddCommand(create, list, revoke)
	return cmd
}

// --- version ---

func (c *cli) versionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the devctx version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(c.out, "devctx v%s\n", version.Version)
			if !check {
				return nil
			}

			res, err := version.Check(cmd.Context(), version.Version)
			if err != nil {
				return err
			}
			if res.UpdateAvailable {
				fmt.Fprintf(c.out, "Update available: v%s -> v%s\n%s\n", res.Current, res.Latest, res.ReleaseURL)
			} else {
				fmt.Fprintln(c.out, "Already at the latest version.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check for a newer release")
	return cmd
}
