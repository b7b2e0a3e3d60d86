package main

import (
	"context"
	"errors"
	"log"
	"os"
	goruntime "runtime"
	"sync"

	"github.com/paulmach/orb/maptile"
	"github.com/posthog/posthog-go"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/cherepokivan/BeamNG-Map-Generator/internal/cache"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/config"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/generate"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/geo"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/mapgen"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/osm"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/progress"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/selection"
	"github.com/cherepokivan/BeamNG-Map-Generator/internal/terrain"
)

// Linker flags
var (
	PostHogKey  string
	PostHogHost string
	AppVersion  string = "0.0.0-dev"
)

// OutcomeChannelName is the event channel terminal results are published on
const OutcomeChannelName = "generation-complete"

// ViewSnapshot is what the frontend renders after every interaction. The
// selection state machine and the generation state are reported together so
// a single event handler can redraw the whole panel.
type ViewSnapshot struct {
	Selection selection.State   `json:"selection"`
	State     generate.Snapshot `json:"state"`
}

// App struct
type App struct {
	ctx          context.Context
	mu           sync.Mutex
	selector     *selection.Selector
	viewState    *generate.ViewState
	orchestrator *generate.Orchestrator
	bus          *progress.Bus
	busDispose   func()
	settings     *config.UserSettings
	tileCache    *cache.TileCache
	phClient     posthog.Client
	devMode      bool // Enable verbose logging in dev mode only
}

// NewApp creates a new App application struct
func NewApp() *App {
	// Load user settings
	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	log.Printf("Settings loaded from: %s", config.GetSettingsPath())

	// Initialize cache with settings
	cacheDir := cache.GetCacheDir()
	tileCache, err := cache.NewTileCache(cacheDir, settings.CacheMaxSizeMB)
	if err != nil {
		log.Printf("Failed to initialize tile cache: %v", err)
		tileCache = nil // Continue without cache
	} else {
		log.Printf("Tile cache initialized at %s (max %d MB)", cacheDir, settings.CacheMaxSizeMB)
	}

	// Initialize PostHog
	var phClient posthog.Client
	if PostHogKey != "" {
		phConfig := posthog.Config{
			Endpoint: PostHogHost,
		}
		client, err := posthog.NewWithConfig(PostHogKey, phConfig)
		if err != nil {
			log.Printf("Failed to initialize PostHog: %v", err)
		} else {
			phClient = client
		}
	}

	bus := progress.NewBus()
	engine := mapgen.NewEngine(terrain.NewClient(tileCache), osm.NewClient(), bus)
	engine.SetZoom(maptile.Zoom(settings.TerrainZoom))

	viewState := generate.NewViewState()
	viewState.SetOutputPath(settings.OutputPath)

	selector := selection.New(func(b geo.BoundingBox) {
		viewState.SetBoundingBox(b)
	})

	return &App{
		selector:     selector,
		viewState:    viewState,
		orchestrator: generate.NewOrchestrator(viewState, engine),
		bus:          bus,
		settings:     settings,
		tileCache:    tileCache,
		phClient:     phClient,
	}
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// Create output directory if it doesn't exist
	os.MkdirAll(a.settings.OutputPath, 0755)

	// Forward every progress record to the frontend and fold it into the
	// view state. The subscription lives for the whole process; it is not
	// tied to a single generation run.
	a.busDispose = a.bus.Subscribe(func(p progress.Progress) {
		a.viewState.ApplyProgress(p)
		wailsRuntime.EventsEmit(ctx, progress.ChannelName, p)
	})

	a.orchestrator.SetOnOutcome(func(o generate.Outcome) {
		wailsRuntime.EventsEmit(ctx, OutcomeChannelName, o)
		if o.Success {
			wailsRuntime.LogInfo(ctx, o.Message)
			a.TrackEvent("generation_succeeded", nil)
		} else {
			wailsRuntime.LogError(ctx, "Generation failed: "+o.Message)
			a.TrackEvent("generation_failed", map[string]interface{}{
				"error": o.Message,
			})
		}
	})

	// Track app start
	a.TrackEvent("app_started", map[string]interface{}{
		"version": a.GetAppVersion(),
		"os":      goruntime.GOOS,
		"arch":    goruntime.GOARCH,
	})
}

// TrackEvent sends an event to PostHog
func (a *App) TrackEvent(event string, props map[string]interface{}) {
	if a.phClient != nil {
		// Desktop app without login; a per-install UUID stored in settings
		// would be better than a fixed distinct ID
		a.phClient.Enqueue(posthog.Capture{
			DistinctId: "backend_user",
			Event:      event,
			Properties: props,
		})
	}
}

// Shutdown cleans up resources
func (a *App) Shutdown(ctx context.Context) {
	if a.busDispose != nil {
		a.busDispose()
	}
	if a.phClient != nil {
		a.phClient.Close()
	}
}

// GetAppVersion returns the current application version
func (a *App) GetAppVersion() string {
	return AppVersion
}

// snapshot composes the selection and generation views. Callers hold a.mu.
func (a *App) snapshot() ViewSnapshot {
	return ViewSnapshot{
		Selection: a.selector.State(),
		State:     a.viewState.Snapshot(),
	}
}

// HandleMapClick feeds one map click into the selection state machine.
// The first click records a corner, the second completes the bounding box,
// and clicks on a completed selection are ignored until ResetSelection.
func (a *App) HandleMapClick(lat, lng float64) ViewSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.selector.Click(geo.Point{Lat: lat, Lng: lng})
	return a.snapshot()
}

// ResetSelection discards any selected region
func (a *App) ResetSelection() ViewSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.selector.Reset()
	a.viewState.ClearBoundingBox()
	return a.snapshot()
}

// GetViewState returns the current view snapshot
func (a *App) GetViewState() ViewSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// DismissOutcome clears the terminal result banner
func (a *App) DismissOutcome() ViewSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.viewState.DismissOutcome()
	return a.snapshot()
}

// SelectOutputFolder opens a folder picker dialog. A cancelled dialog
// returns an empty path and leaves the current output path unchanged.
func (a *App) SelectOutputFolder() (string, error) {
	path, err := wailsRuntime.OpenDirectoryDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title:            "Select Output Folder",
		DefaultDirectory: a.viewState.OutputPath(),
	})
	if err != nil {
		return "", err
	}

	if path != "" {
		a.mu.Lock()
		a.viewState.SetOutputPath(path)
		a.settings.OutputPath = path
		if err := config.SaveSettings(a.settings); err != nil {
			log.Printf("Failed to persist output path: %v", err)
		}
		a.mu.Unlock()
	}

	return path, nil
}

// GenerateTerrain starts a generation run for the selected region. The run
// executes in the background; progress arrives on the progress channel and
// the terminal result on the outcome channel. Precondition failures are
// returned synchronously so the frontend can surface them inline.
func (a *App) GenerateTerrain() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.orchestrator.Start(a.ctx)
	switch {
	case err == nil:
		a.TrackEvent("generation_started", map[string]interface{}{
			"zoom": a.settings.TerrainZoom,
		})
		return nil
	case errors.Is(err, generate.ErrInFlight):
		a.emitLog("generation already in progress")
		return err
	default:
		return err
	}
}

// emitLog sends a log message to the frontend (only in dev mode)
func (a *App) emitLog(message string) {
	if a.devMode {
		wailsRuntime.EventsEmit(a.ctx, "log", message)
	}
}
