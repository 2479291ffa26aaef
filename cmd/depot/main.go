package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stagekit/depot/internal/config"
	"github.com/stagekit/depot/internal/domain/audit"
	"github.com/stagekit/depot/internal/domain/availability"
	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/domain/project"
	"github.com/stagekit/depot/internal/metrics"
	"github.com/stagekit/depot/internal/sqlite"
)

const usage = `Usage: depot <command> [args]

Commands:
  init                                     create the database schema
  location add <name>                      register a warehouse location
  location list                            list warehouse locations
  category add <name>                      register a category
  item add -name <n> -location <id> [-bulk] [-qty <n>] [-serial <sn>]
           [-model <m>] [-category <id>] [-critical <n>]
  item list [-status <s>] [-project <id>] [-low-stock]
  item history <id>                        show an item's inventory log
  assign <equipment-id> <project-id> <qty> check equipment out to a project
  return <equipment-id> <qty>              return equipment to the warehouse
  adjust <equipment-id> <delta> [note]     administrative stock correction
  project add -name <n> [-starts <date>] [-ends <date>] [-equipment <id,id>]
  project status <id> <STATUS>             transition a project
  project list                             list projects

Environment: DEPOT_DB_PATH, DEPOT_LOG_LEVEL, DEPOT_TX_TIMEOUT, DEPOT_CONFIG_PATH
`

type app struct {
	store     *sqlite.Store
	projects  *sqlite.ProjectRepository
	engine    *equipment.Service
	audits    *audit.Service
	lifecycle *project.Service
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		logger.Error("failed to create schema", "error", err)
		os.Exit(1)
	}

	store := sqlite.NewStore(db)
	projectRepo := sqlite.NewProjectRepository(db)
	m := metrics.New(prometheus.NewRegistry())

	engine := equipment.NewService(store, projectRepo, m, logger,
		equipment.WithTxTimeout(cfg.TxTimeout()))
	checker := availability.NewChecker(projectRepo, logger)

	a := &app{
		store:     store,
		projects:  projectRepo,
		engine:    engine,
		audits:    audit.NewService(store, logger),
		lifecycle: project.NewService(projectRepo, engine, checker, m, logger),
	}

	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	switch args[0] {
	case "init":
		// Schema is ensured on startup; nothing further to do.
		fmt.Println("database ready")
		return nil
	case "location":
		return a.runLocation(ctx, args[1:])
	case "category":
		return a.runCategory(ctx, args[1:])
	case "item":
		return a.runItem(ctx, args[1:])
	case "assign":
		return a.runAssign(ctx, args[1:])
	case "return":
		return a.runReturn(ctx, args[1:])
	case "adjust":
		return a.runAdjust(ctx, args[1:])
	case "project":
		return a.runProject(ctx, args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) runLocation(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: depot location <add|list>")
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: depot location add <name>")
		}
		loc, err := a.store.CreateLocation(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", loc.ID, loc.Name)
		return nil
	case "list":
		locs, err := a.store.ListLocations(ctx)
		if err != nil {
			return err
		}
		for _, loc := range locs {
			fmt.Printf("%s  %s\n", loc.ID, loc.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown location command %q", args[0])
	}
}

func (a *app) runCategory(ctx context.Context, args []string) error {
	if len(args) != 2 || args[0] != "add" {
		return fmt.Errorf("usage: depot category add <name>")
	}
	c, err := a.store.CreateCategory(ctx, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", c.ID, c.Name)
	return nil
}

func (a *app) runItem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: depot item <add|list|history>")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("item add", flag.ContinueOnError)
		name := fs.String("name", "", "item name")
		model := fs.String("model", "", "item model")
		category := fs.String("category", "", "category id")
		location := fs.String("location", "", "home warehouse location id")
		serial := fs.String("serial", "", "serial number (serialized items)")
		bulk := fs.Bool("bulk", false, "bulk item (counted, not serialized)")
		qty := fs.Int("qty", 1, "initial quantity (bulk items)")
		critical := fs.Int("critical", 0, "critical stock threshold")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		tracking := equipment.TrackingSerialized
		if *bulk {
			tracking = equipment.TrackingBulk
		}
		e, err := a.engine.CreateItem(ctx, equipment.CreateRequest{
			Name:          *name,
			Model:         *model,
			CategoryID:    *category,
			LocationID:    *location,
			TrackingType:  tracking,
			SerialNumber:  *serial,
			Quantity:      *qty,
			CriticalStock: *critical,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  qty=%d\n", e.ID, e.Name, e.Quantity)
		return nil
	case "list":
		fs := flag.NewFlagSet("item list", flag.ContinueOnError)
		status := fs.String("status", "", "filter by status")
		projectID := fs.String("project", "", "filter by holding project")
		lowStock := fs.Bool("low-stock", false, "only items below critical stock")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		items, err := a.engine.Find(ctx, equipment.Filter{
			Status:        equipment.Status(*status),
			ProjectID:     *projectID,
			BelowCritical: *lowStock,
		})
		if err != nil {
			return err
		}
		for _, e := range items {
			fmt.Printf("%s  %-30s  %-10s  %-11s  qty=%-4d  %s:%s\n",
				e.ID, e.Name, e.TrackingType, e.Status, e.Quantity, e.Holder.Kind, e.Holder.ID)
		}
		return nil
	case "history":
		if len(args) != 2 {
			return fmt.Errorf("usage: depot item history <id>")
		}
		entries, err := a.audits.History(ctx, args[1])
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-17s  %+d  %s\n",
				e.CreatedAt.Format(time.RFC3339), e.Action, e.QuantityChanged, e.Note)
		}
		return nil
	default:
		return fmt.Errorf("unknown item command %q", args[0])
	}
}

func (a *app) runAssign(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: depot assign <equipment-id> <project-id> <qty>")
	}
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[2])
	}
	return a.engine.AssignToProject(ctx, equipment.AssignRequest{
		EquipmentID: args[0],
		ProjectID:   args[1],
		Quantity:    qty,
	})
}

func (a *app) runReturn(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: depot return <equipment-id> <qty>")
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	return a.engine.ReturnToWarehouse(ctx, equipment.ReturnRequest{
		EquipmentID: args[0],
		Quantity:    qty,
	})
}

func (a *app) runAdjust(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: depot adjust <equipment-id> <delta> [note]")
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid delta %q", args[1])
	}
	note := strings.Join(args[2:], " ")
	return a.engine.AdjustCount(ctx, args[0], delta, note, "")
}

func (a *app) runProject(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: depot project <add|status|list>")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("project add", flag.ContinueOnError)
		name := fs.String("name", "", "project name")
		starts := fs.String("starts", "", "start date (YYYY-MM-DD)")
		ends := fs.String("ends", "", "end date (YYYY-MM-DD)")
		equipmentIDs := fs.String("equipment", "", "comma-separated equipment ids")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		req := project.CreateRequest{Name: *name}
		var err error
		if req.StartsAt, err = parseDate(*starts); err != nil {
			return err
		}
		if req.EndsAt, err = parseDate(*ends); err != nil {
			return err
		}
		if *equipmentIDs != "" {
			req.EquipmentIDs = strings.Split(*equipmentIDs, ",")
		}
		p, err := a.lifecycle.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %s\n", p.ID, p.Name, p.Status)
		return nil
	case "status":
		if len(args) != 3 {
			return fmt.Errorf("usage: depot project status <id> <STATUS>")
		}
		return a.lifecycle.Transition(ctx, args[1], project.Status(args[2]))
	case "list":
		projects, err := a.lifecycle.List(ctx)
		if err != nil {
			return err
		}
		for _, p := range projects {
			fmt.Printf("%s  %-30s  %s\n", p.ID, p.Name, p.Status)
		}
		return nil
	default:
		return fmt.Errorf("unknown project command %q", args[0])
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
