package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/export"
	"github.com/rebeliceyang/lazyes/internal/history"
	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/session"
	"github.com/rebeliceyang/lazyes/internal/ui/components"
)

func newConnectionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved connections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTable("ALIAS", "HOST", "AUTH")
			for _, c := range opts.rt.conns.All() {
				auth := "-"
				if c.HasCredentials() {
					auth = c.Username
				}
				t.Row(c.Alias, c.Host, auth)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	})

	var username, password string
	add := &cobra.Command{
		Use:   "add <alias> <host>",
		Short: "Save a connection, replacing one with the same alias and host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn := models.Connection{
				Alias:    args[0],
				Host:     strings.TrimRight(args[1], "/"),
				Username: username,
				Password: password,
			}
			if err := opts.rt.conns.Add(conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", conn.Alias, conn.Redacted())
			return nil
		},
	}
	add.Flags().StringVarP(&username, "username", "u", "", "basic auth user")
	add.Flags().StringVarP(&password, "password", "p", "", "basic auth password")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove a saved connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, ok := opts.rt.conns.Find(args[0])
			if !ok {
				return fmt.Errorf("no connection named %q", args[0])
			}
			if err := opts.rt.conns.Remove(conn.Key()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", conn.Alias)
			return nil
		},
	})
	return cmd
}

func findConnection(opts *rootOptions, alias string) (models.Connection, error) {
	conn, ok := opts.rt.conns.Find(alias)
	if !ok {
		return models.Connection{}, fmt.Errorf("no connection named %q", alias)
	}
	return conn, nil
}

func newOverviewCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "overview <alias>",
		Short: "Print cluster information and index statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := findConnection(opts, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sess := opts.rt.session
			key, _, err := sess.OpenOverviewTab(conn)
			if err != nil {
				return err
			}
			if err := sess.LoadOverview(ctx, key); err != nil {
				return err
			}
			state, _ := sess.Store().Snapshot().Tab(key)
			printOverview(cmd.OutOrStdout(), state.Overview)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	return cmd
}

func printOverview(w io.Writer, ov *models.Overview) {
	fmt.Fprintf(w, "cluster  %s (%s)\n", ov.Info.ClusterName, ov.Info.ClusterUUID)
	fmt.Fprintf(w, "node     %s\n", ov.Info.Name)
	fmt.Fprintf(w, "version  %s (lucene %s)\n", ov.Info.Version, ov.Info.LuceneVersion)
	fmt.Fprintf(w, "docs     %d (%d deleted)\n", ov.Stats.TotalDocs, ov.Stats.DeletedDocs)
	fmt.Fprintf(w, "size     %s in %d segments\n\n", components.FormatBytes(ov.Stats.TotalSizeBytes), ov.Stats.SegmentCount)

	t := newTable("INDEX", "HEALTH", "STATUS", "DOCS", "SIZE", "ALIASES")
	for _, b := range ov.Indices {
		t.Row(b.Index, string(b.Health), b.Status, strconv.FormatInt(b.DocsCount, 10), b.StoreSize, strings.Join(b.Aliases, ","))
	}
	fmt.Fprintln(w, t.Render())
}

type queryOptions struct {
	docType string
	filter  string
	where   []string
	page    int
	size    int
	format  string
	timeout time.Duration
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <alias> <index>",
		Short: "Print one page of documents",
		Example: `  lazyes query local logs --where "level=error" --where "took>100"
  lazyes query local logs --filter '{"term":{"level":"error"}}' --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := findConnection(opts, args[0])
			if err != nil {
				return err
			}
			filter, err := q.filterText()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), q.timeout)
			defer cancel()

			state, err := runQuery(ctx, opts.rt.session, conn, args[1], q, filter)
			if err != nil {
				return err
			}
			return writePage(cmd.OutOrStdout(), q.format, state)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&q.docType, "type", "t", "", "document type (defaults to the first one)")
	flags.StringVarP(&q.filter, "filter", "f", "", "query DSL clause")
	flags.StringArrayVarP(&q.where, "where", "w", nil, "condition like field=value, repeatable and joined with AND")
	flags.IntVar(&q.page, "page", 1, "page number")
	flags.IntVar(&q.size, "size", 0, "page size (defaults to general.default_page_size)")
	flags.StringVarP(&q.format, "format", "o", "table", "output format: table, json or csv")
	flags.DurationVar(&q.timeout, "timeout", 30*time.Second, "overall timeout")
	cmd.MarkFlagsMutuallyExclusive("filter", "where")
	return cmd
}

// filterText returns the filter to send; empty keeps the configured default
func (q *queryOptions) filterText() (string, error) {
	if len(q.where) == 0 {
		return q.filter, nil
	}
	group := models.FilterGroup{Logic: "AND"}
	for _, expr := range q.where {
		cond, err := dsl.ParseWhere(expr)
		if err != nil {
			return "", err
		}
		group.Conditions = append(group.Conditions, cond)
	}
	clause, err := dsl.NewBuilder().BuildQuery(models.Filter{RootGroup: group})
	if err != nil {
		return "", err
	}
	return dsl.Compact(clause)
}

func runQuery(ctx context.Context, sess *session.Session, conn models.Connection, index string, q *queryOptions, filter string) (session.TabState, error) {
	key, _, err := sess.OpenQueryTab(conn, index)
	if err != nil {
		return session.TabState{}, err
	}
	if err := sess.ResolveSchema(ctx, key); err != nil {
		return session.TabState{}, err
	}

	store := sess.Store()
	if q.docType != "" {
		state, _ := store.Snapshot().Tab(key)
		if !state.Schema.Catalog.HasType(q.docType) {
			return session.TabState{}, fmt.Errorf("index %s has no type %q (have %s)", index, q.docType, strings.Join(state.Schema.Catalog.TypeNames(), ", "))
		}
		store.SetType(key, q.docType)
	}
	if filter != "" {
		store.SetFilter(key, filter)
	}
	store.SetPage(key, q.page, q.size)

	if err := sess.Refresh(ctx, key); err != nil {
		return session.TabState{}, err
	}
	state, _ := store.Snapshot().Tab(key)
	return state, nil
}

func writePage(w io.Writer, format string, state session.TabState) error {
	switch format {
	case "table", "":
		page := state.Page
		t := newTable(append([]string{models.KeyField}, page.Columns...)...)
		for _, row := range page.Rows {
			cells := make([]string, 0, len(page.Columns)+1)
			cells = append(cells, row.ID)
			for _, col := range page.Columns {
				cells = append(cells, dsl.Truncate(dsl.CellText(row.Document[col]), 50))
			}
			t.Row(cells...)
		}
		fmt.Fprintln(w, t.Render())
		fmt.Fprintln(w, strings.TrimSpace(components.PageStatus(state.Pagination, len(page.Rows), 0)))
		return nil
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if f == export.FormatCSV {
		return export.PageToCSV(w, state.Page)
	}
	return export.PageToJSON(w, state.Page)
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var index, search string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := opts.rt.history
			if store == nil {
				return fmt.Errorf("history is disabled")
			}
			ctx := cmd.Context()

			var (
				entries []history.Entry
				err     error
			)
			switch {
			case search != "":
				entries, err = store.Search(ctx, search, limit)
			case index != "":
				alias, idx, ok := strings.Cut(index, "/")
				if !ok {
					return fmt.Errorf("--index must be alias/index")
				}
				entries, err = store.ForIndex(ctx, alias, idx, limit)
			default:
				entries, err = store.GetRecent(ctx, limit)
			}
			if err != nil {
				return err
			}

			t := newTable("WHEN", "CONNECTION", "INDEX", "OPERATION", "AFFECTED", "TOOK", "RESULT")
			for _, e := range entries {
				result := "ok"
				if !e.Success {
					result = dsl.Truncate(e.Error, 40)
				}
				t.Row(
					e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
					e.Connection,
					e.Index,
					e.Operation,
					strconv.FormatInt(e.Affected, 10),
					e.Duration.Round(time.Millisecond).String(),
					result,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().StringVar(&index, "index", "", "only entries of alias/index")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only entries whose detail, index or error contains text")
	return cmd
}

func newFavoritesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage saved filters",
	}

	var format string
	list := &cobra.Command{
		Use:   "list [search]",
		Short: "List saved filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var favs []models.Favorite
			if len(args) == 1 {
				favs = opts.rt.favorites.Search(args[0])
			} else {
				favs = opts.rt.favorites.GetAll()
			}
			if format == "csv" {
				return export.FavoritesToCSV(cmd.OutOrStdout(), favs)
			}
			t := newTable("ID", "NAME", "TARGET", "USED", "FILTER")
			for _, f := range favs {
				t.Row(f.ID, f.Name, f.Connection+"/"+f.Index, strconv.Itoa(f.UsageCount), dsl.Truncate(f.Filter, 50))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	list.Flags().StringVarP(&format, "format", "o", "table", "output format: table or csv")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.rt.favorites.Delete(args[0])
		},
	})
	return cmd
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}
