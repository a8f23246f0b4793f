package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/paneshell/paneshell/pkg/config"
	"github.com/paneshell/paneshell/pkg/model"
	"github.com/paneshell/paneshell/pkg/orchestrator"
	"github.com/paneshell/paneshell/pkg/registry"
	"github.com/paneshell/paneshell/pkg/store"
	"github.com/paneshell/paneshell/pkg/ui"
)

const pshVersion = "0.1.0"

func main() {
	help := flag.Bool("help", false, "Show help")
	version := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file path (default: user config dir)")
	layoutID := flag.String("layout", "", "Saved layout id to open")
	list := flag.Bool("list", false, "List saved layouts and exit")
	flag.Parse()

	if *help {
		fmt.Println("Usage: psh [options]")
		fmt.Println("\nA multi-view layout shell for terminal dashboards.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *version {
		fmt.Println("psh version " + pshVersion)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	orch, err := orchestrator.New(cfg)
	if err != nil {
		fmt.Printf("Error opening layout store: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *list {
		summaries, err := orch.Persist.List(ctx)
		if err != nil {
			fmt.Printf("Error listing layouts: %v\n", err)
			os.Exit(1)
		}
		if len(summaries) == 0 {
			fmt.Println("No saved layouts. Start psh and press w to save one.")
			os.Exit(0)
		}
		for _, s := range summaries {
			fmt.Printf("%s  %-20s %-7s v%d  %s\n",
				s.ID, s.Name, s.Mode, s.Version, s.LastModified.Format("2006-01-02 15:04"))
		}
		_ = orch.Persist.Close()
		os.Exit(0)
	}

	registerRenderers(orch)

	if err := orch.Init(ctx, *layoutID); err != nil {
		fmt.Printf("Error initializing workspace: %v\n", err)
		os.Exit(1)
	}

	// Fresh workspaces get a starting template prompt before the shell
	// takes over the terminal.
	if *layoutID == "" && len(orch.Store.Layout().Views) == 0 {
		if err := applyTemplate(orch); err != nil {
			fmt.Printf("Error applying template: %v\n", err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(ui.NewModel(orch), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	if err := orch.Teardown(ctx); err != nil {
		fmt.Printf("Warning: teardown: %v\n", err)
	}
	if runErr != nil {
		fmt.Printf("Error running paneshell: %v\n", runErr)
		os.Exit(1)
	}
}

// registerRenderers installs the built-in pane sources. Hosts embedding the
// engine register their own factories instead.
func registerRenderers(o *orchestrator.Orchestrator) {
	o.Registry.Register("demo", func(sourceRef string, cb registry.Callbacks) (registry.Renderer, error) {
		return registry.RendererFunc(func(p registry.Props) string {
			return fmt.Sprintf("%s\n%dx%d at (%d,%d)", sourceRef, p.Size.Width, p.Size.Height, p.Position.X, p.Position.Y)
		}), nil
	})
	o.Registry.Register("metrics", func(sourceRef string, cb registry.Callbacks) (registry.Renderer, error) {
		return registry.RendererFunc(func(p registry.Props) string {
			v := o.Store.Layout().View(p.ID)
			if v == nil || len(v.Metrics) == 0 {
				return "awaiting metrics…"
			}
			out := ""
			for k, val := range v.Metrics {
				out += fmt.Sprintf("%s: %.2f\n", k, val)
			}
			return out
		}), nil
	})
}

// applyTemplate prompts for a starting layout shape and seeds it.
func applyTemplate(o *orchestrator.Orchestrator) error {
	mode := model.ModeGrid
	panes := 4

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.LayoutMode]().
				Title("Layout mode").
				Options(
					huh.NewOption("Grid", model.ModeGrid),
					huh.NewOption("Split", model.ModeSplit),
					huh.NewOption("Tabbed", model.ModeTabbed),
					huh.NewOption("Single", model.ModeSingle),
				).
				Value(&mode),
			huh.NewSelect[int]().
				Title("Starting panes").
				Options(
					huh.NewOption("1", 1),
					huh.NewOption("2", 2),
					huh.NewOption("4", 4),
					huh.NewOption("6", 6),
				).
				Value(&panes),
		),
	)
	if err := form.Run(); err != nil {
		// Non-interactive hosts keep the default grid.
		return nil
	}

	if err := o.Store.Dispatch(store.SetMode{Mode: mode}); err != nil {
		return err
	}
	for i := 1; i <= panes; i++ {
		_, err := o.AddView(model.ViewConfiguration{
			Title:     fmt.Sprintf("view %d", i),
			SourceRef: "demo:pane",
			Resizable: true,
			Draggable: true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
