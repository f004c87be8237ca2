package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsdb/internal/cache"
	"github.com/fortuna/hoopsdb/internal/store"
	"github.com/fortuna/hoopsdb/internal/store/repository"
)

var (
	statusRuns  int
	statusRunID int64
	statusTeams bool
)

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 5, "number of recent load runs to show")
	statusCmd.Flags().Int64Var(&statusRunID, "run", 0, "show the per-file events of one load run")
	statusCmd.Flags().BoolVar(&statusTeams, "teams", false, "also list the team reference table")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints connectivity, row counts per warehouse table and recent load runs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		rc := connectRedis()
		if rc != nil {
			defer rc.Close()
		}

		return writeStatus(ctx, cmd.OutOrStdout(), db, rc, statusOptions{
			runs:  statusRuns,
			runID: statusRunID,
			teams: statusTeams,
		})
	},
}

type statusOptions struct {
	runs  int
	runID int64
	teams bool
}

func writeStatus(ctx context.Context, out io.Writer, db *store.Database, rc *cache.RedisCache, opts statusOptions) error {
	services := newTable(out, table.Row{"Service", "Status"})
	services.AppendRow(table.Row{"PostgreSQL", checkHealth(ctx, db.HealthCheck)})
	if rc == nil {
		services.AppendRow(table.Row{"Redis", "not connected"})
	} else {
		services.AppendRow(table.Row{"Redis", checkHealth(ctx, rc.HealthCheck)})
	}
	services.Render()

	counts, err := repository.NewWarehouseRepository(db).TableCounts(ctx, store.WarehouseTables)
	if err != nil {
		return err
	}

	t := newTable(out, table.Row{"Table", "Rows"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Table, c.Rows})
	}
	t.Render()

	runRepo := repository.NewLoadRunRepository(db)
	runs, err := runRepo.ListRecentRuns(ctx, opts.runs)
	if err != nil {
		return err
	}

	r := newTable(out, table.Row{"Run", "Started", "Status", "Files", "Failed", "Inserted", "Updated", "Last error"})
	for _, run := range runs {
		r.AppendRow(table.Row{
			run.RunID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.FilesTotal,
			run.FilesFailed,
			run.RowsInserted,
			run.RowsUpdated,
			truncate(run.LastError.String, 60),
		})
	}
	r.Render()

	if opts.runID > 0 {
		events, err := runRepo.ListEvents(ctx, opts.runID)
		if err != nil {
			return err
		}

		e := newTable(out, table.Row{"Time", "Event", "Table", "File", "Rows", "Message"})
		e.SetTitle(fmt.Sprintf("Run %d", opts.runID))
		for _, ev := range events {
			rows := ""
			if ev.Rows.Valid {
				rows = fmt.Sprint(ev.Rows.Int32)
			}
			file := ""
			if ev.FilePath.Valid {
				file = filepath.Base(ev.FilePath.String)
			}
			e.AppendRow(table.Row{
				ev.CreatedAt.Local().Format(time.TimeOnly),
				ev.EventType,
				ev.TableName.String,
				file,
				rows,
				truncate(ev.Message.String, 80),
			})
		}
		e.Render()
	}

	if !opts.teams {
		return nil
	}

	teams, err := repository.NewTeamRepository(db).GetAll(ctx)
	if err != nil {
		return err
	}
	tt := newTable(out, table.Row{"Team", "Name"})
	for _, team := range teams {
		tt.AppendRow(table.Row{team.TeamID, team.Name})
	}
	tt.Render()
	return nil
}

func newTable(out io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

// checkHealth runs check and formats its outcome with the round trip time.
func checkHealth(ctx context.Context, check func(context.Context) error) string {
	started := time.Now()
	if err := check(ctx); err != nil {
		return truncate("unreachable: "+err.Error(), 60)
	}
	return fmt.Sprintf("ok (%v)", time.Since(started).Round(time.Millisecond))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
