// Package app wires the pieces together: cli → logger → project →
// compiler → engine, then runs the stage windowed or headless.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/blockstage/pkg/audio"
	"github.com/zurustar/blockstage/pkg/cli"
	"github.com/zurustar/blockstage/pkg/compiler"
	"github.com/zurustar/blockstage/pkg/engine"
	"github.com/zurustar/blockstage/pkg/logger"
	"github.com/zurustar/blockstage/pkg/project"
)

// Application manages the main program logic.
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	project *project.Project
	engine  *engine.Engine
	sound   *audio.Player
}

// New creates an Application.
func New() *Application {
	return &Application{}
}

// Run executes the application with the given command line arguments.
func (app *Application) Run(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}
	if app.config.ProjectPath == "" {
		cli.PrintHelp()
		return fmt.Errorf("no project file given")
	}

	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()
	app.log.Info("application started", "project", app.config.ProjectPath)

	proj, err := project.Load(app.config.ProjectPath)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	app.project = proj
	app.log.Info("project loaded",
		"name", proj.Name, "objects", len(proj.Objects),
		"stage", fmt.Sprintf("%dx%d", proj.Stage.Width, proj.Stage.Height))

	if app.config.AssetDir == "" {
		app.config.AssetDir = filepath.Dir(app.config.ProjectPath)
	}

	if err := app.buildEngine(); err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	if app.config.Headless {
		err = app.runHeadless()
	} else {
		err = app.runWindowed()
	}
	if app.sound != nil {
		app.sound.Shutdown()
	}
	if err != nil {
		return err
	}

	app.log.Info("application terminated normally")
	return nil
}

// buildEngine compiles every object's block program and assembles the
// scene. A script that fails to compile is logged and skipped; the rest
// of the program still runs.
func (app *Application) buildEngine() error {
	opts := []engine.Option{
		engine.WithLogger(app.log),
		engine.WithHeadless(app.config.Headless),
		engine.WithTimeout(app.config.Timeout),
	}
	if app.config.Seed != 0 {
		opts = append(opts, engine.WithSeed(app.config.Seed))
	}
	if !app.config.Headless {
		opts = append(opts,
			engine.WithInput(engine.NewEbitenInput()),
			engine.WithAssets(dirAssets{dir: app.config.AssetDir}),
		)
		sound, err := audio.NewPlayer(app.config.AssetDir, app.config.SoundFont, nil)
		if err != nil {
			app.log.Warn("audio unavailable, sound blocks will be no-ops", "error", err)
		} else {
			app.sound = sound
			opts = append(opts, engine.WithSound(sound))
		}
	}

	eng := engine.New(opts...)
	for k, v := range app.project.Globals {
		eng.Globals().Define(k, v)
	}

	comp := compiler.New(compiler.WithLogger(app.log))
	handlerCount := 0
	for _, obj := range app.project.Objects {
		result := comp.Compile(obj.ID, obj.Program())
		for _, cerr := range result.Errors {
			app.log.Warn("script rejected",
				"object", obj.ID, "node", cerr.NodeID, "error", cerr.Message)
		}
		handlerCount += len(result.Handlers)

		eng.RegisterType(obj.ID, obj.Name, obj.Costumes, obj.Variables, result.Handlers)
		if _, err := eng.Place(obj.ID, obj.X, obj.Y); err != nil {
			return err
		}
	}
	app.log.Info("project compiled", "handlers", handlerCount)
	if handlerCount == 0 {
		app.log.Warn("no runnable scripts in project")
	}

	app.engine = eng
	return nil
}

// runHeadless drives the tick loop directly, as fast as possible. Engine
// time is tick-based, so a run with the same seed and input schedule is
// reproducible regardless of wall clock.
func (app *Application) runHeadless() error {
	app.log.Info("headless mode: running tick loop without a window")
	if app.config.Timeout <= 0 {
		app.log.Warn("headless run without timeout never stops on its own")
	}
	app.engine.Start()
	for {
		if err := app.engine.Tick(); err != nil {
			if errors.Is(err, engine.ErrTerminated) {
				return nil
			}
			return err
		}
	}
}

func (app *Application) runWindowed() error {
	title := app.project.Name
	if title == "" {
		title = "blockstage"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(app.project.Stage.Width, app.project.Stage.Height)
	ebiten.SetTPS(app.engine.TPS())

	g := &game{eng: app.engine, stage: app.project.Stage}
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("game loop: %w", err)
	}
	return nil
}

// game adapts the engine to ebiten's Game interface.
type game struct {
	eng   *engine.Engine
	stage project.Stage
}

func (g *game) Update() error {
	if err := g.eng.Tick(); err != nil {
		if errors.Is(err, engine.ErrTerminated) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.eng.Draw(screen)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.stage.Width, g.stage.Height
}
