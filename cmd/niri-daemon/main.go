package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fuchaoran001/niri/pkg/config"
	"github.com/fuchaoran001/niri/pkg/geometry"
	"github.com/fuchaoran001/niri/pkg/ipc"
	"github.com/fuchaoran001/niri/pkg/paths"
	"github.com/fuchaoran001/niri/pkg/perf"
)

var crashLog *log.Logger
var eventLog *log.Logger

func initCrashLog(instance string) {
	crashLogPath := paths.StatePath(fmt.Sprintf("daemon-%s-crash.log", instance))
	f, err := os.OpenFile(crashLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		crashLog = log.New(os.Stderr, "[CRASH] ", log.LstdFlags)
		return
	}
	crashLog = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
}

func initEventLog(instance string) {
	eventLogPath := paths.StatePath(fmt.Sprintf("daemon-%s-events.log", instance))
	f, err := os.OpenFile(eventLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		eventLog = log.New(os.Stderr, "[EVENT] ", log.LstdFlags)
		return
	}
	eventLog = log.New(f, "[event] ", log.LstdFlags|log.Lmicroseconds)
}

func logEvent(format string, args ...interface{}) {
	if eventLog != nil {
		eventLog.Printf(format, args...)
	}
}

func logCrash(context string, r interface{}) {
	crashLog.Printf("=== CRASH in %s ===", context)
	crashLog.Printf("Panic: %v", r)
	crashLog.Printf("Stack trace:\n%s", debug.Stack())
	crashLog.Printf("=== END CRASH ===\n")
}

func recoverAndLog(context string) {
	if r := recover(); r != nil {
		logCrash(context, r)
	}
}

var (
	instanceFlag = flag.String("instance", "", "instance name (defaults to $WAYLAND_DISPLAY)")
	configFlag   = flag.String("config", "", "config file path (defaults to the user config dir)")
	outputsFlag  = flag.String("outputs", "eDP-1:1920x1080", "simulated outputs as name:WxH[@scale][/WxHmm][+vrr], comma separated")
	refreshFlag  = flag.Float64("refresh", 60, "simulated refresh rate in Hz")
	windowsFlag  = flag.Int("windows", 0, "number of windows to open at startup")
	debugMode    = flag.Bool("debug", false, "Enable debug logging")
)

var debugLog *log.Logger

type outputSpec struct {
	name  string
	size  geometry.Size
	scale float64
	vrr   bool
}

// parseOutputs parses the -outputs flag, e.g.
// "eDP-1:1920x1080,HDMI-A-1:2560x1440@1.5+vrr,DP-3:3840x2400/290x180".
// An explicit scale is snapped to the fractional-scale grid. A physical
// size in millimeters after a slash picks the scale by monitor heuristics
// instead; without either the scale is 1.
func parseOutputs(arg string) ([]outputSpec, error) {
	var specs []outputSpec
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rest, ok := strings.Cut(part, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("output %q: want name:WxH[@scale][/WxHmm][+vrr]", part)
		}
		vrr := false
		if trimmed, found := strings.CutSuffix(rest, "+vrr"); found {
			rest = trimmed
			vrr = true
		}
		scaleArg := ""
		if dims, sc, found := strings.Cut(rest, "@"); found {
			rest = dims
			scaleArg = sc
		}
		physArg := ""
		if dims, ph, found := strings.Cut(rest, "/"); found {
			rest = dims
			physArg = ph
		}
		ws, hs, ok := strings.Cut(rest, "x")
		if !ok {
			return nil, fmt.Errorf("output %q: want name:WxH[@scale][/WxHmm][+vrr]", part)
		}
		w, errW := strconv.ParseFloat(ws, 64)
		h, errH := strconv.ParseFloat(hs, 64)
		if errW != nil || errH != nil || w <= 0 || h <= 0 {
			return nil, fmt.Errorf("output %q: bad mode %q", part, rest)
		}
		scale := 1.0
		switch {
		case scaleArg != "":
			v, err := strconv.ParseFloat(scaleArg, 64)
			scale = geometry.ClosestRepresentableScale(v)
			if err != nil || scale <= 0 {
				return nil, fmt.Errorf("output %q: bad scale %q", part, scaleArg)
			}
		case physArg != "":
			pws, phs, ok := strings.Cut(physArg, "x")
			pw, errW := strconv.Atoi(pws)
			ph, errH := strconv.Atoi(phs)
			if !ok || errW != nil || errH != nil || pw <= 0 || ph <= 0 {
				return nil, fmt.Errorf("output %q: bad physical size %q", part, physArg)
			}
			scale = geometry.GuessMonitorScale(pw, ph, int(w), int(h))
		}
		specs = append(specs, outputSpec{name: name, size: geometry.Size{W: w, H: h}, scale: scale, vrr: vrr})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no outputs in %q", arg)
	}
	return specs, nil
}

func main() {
	flag.Parse()

	instance := *instanceFlag
	if instance == "" {
		instance = os.Getenv("WAYLAND_DISPLAY")
	}
	if instance == "" {
		instance = "default"
	}

	if _, err := paths.EnsureStateDir(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	initCrashLog(instance)
	initEventLog(instance)
	defer recoverAndLog("main")

	if *debugMode {
		debugLog = log.New(os.Stderr, "[daemon] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		debugLog = log.New(os.Stderr, "", 0)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = paths.ConfigPath()
	}
	cfg := config.DefaultConfig()
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		debugLog.Printf("Loaded config from %s", cfgPath)
	} else {
		debugLog.Printf("No config at %s, using defaults", cfgPath)
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	specs, err := parseOutputs(*outputsFlag)
	if err != nil {
		log.Fatalf("Failed to parse outputs: %v", err)
	}
	var refreshInterval time.Duration
	if *refreshFlag > 0 {
		refreshInterval = time.Duration(float64(time.Second) / *refreshFlag)
	}
	for _, spec := range specs {
		if !engine.AddOutput(spec.name, spec.size, spec.scale, refreshInterval, spec.vrr) {
			log.Fatalf("Duplicate output name %q", spec.name)
		}
		debugLog.Printf("Output %s: %gx%g@%g vrr=%v", spec.name, spec.size.W, spec.size.H, spec.scale, spec.vrr)
	}

	for i := 0; i < *windowsFlag; i++ {
		engine.OpenWindow("")
	}

	server := ipc.NewServer(instance)

	server.OnCommand = func(clientID string, cmd *ipc.CommandPayload) (result *ipc.ResultPayload) {
		defer func() {
			if r := recover(); r != nil {
				debugLog.Printf("PANIC in OnCommand (client=%s action=%s): %v", clientID, cmd.Action, r)
				logEvent("PANIC_COMMAND client=%s action=%s err=%v", clientID, cmd.Action, r)
				result = &ipc.ResultPayload{Error: "internal error"}
			}
		}()
		res := engine.HandleCommand(cmd)
		logEvent("COMMAND client=%s action=%s ok=%v err=%q", clientID, cmd.Action, res.OK, res.Error)
		// Push the new state to subscribers as soon as a command lands.
		if res.OK && cmd.Action != ipc.ActionState {
			server.BroadcastState()
		}
		return res
	}

	server.OnStateNeeded = func() (state *ipc.StatePayload) {
		defer func() {
			if r := recover(); r != nil {
				debugLog.Printf("PANIC in OnStateNeeded: %v", r)
				logEvent("PANIC_STATE err=%v", r)
				state = nil
			}
		}()
		return engine.StateFrame()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	engine.OnQuit = func() {
		sigCh <- syscall.SIGTERM
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	debugLog.Printf("Server listening on %s", server.GetSocketPath())
	logEvent("DAEMON_START instance=%s pid=%d", instance, os.Getpid())

	// Live config reload. Watch failures are not fatal; the daemon keeps
	// running with the config it has.
	watcher, err := config.Watch(cfgPath, func(newCfg *config.Config) {
		if err := engine.ApplyConfig(newCfg); err != nil {
			logEvent("CONFIG_REJECT path=%s err=%v", cfgPath, err)
			return
		}
		debugLog.Printf("Config reloaded from %s", cfgPath)
		logEvent("CONFIG_RELOAD path=%s", cfgPath)
		server.BroadcastState()
	}, func(err error) {
		logEvent("CONFIG_ERROR path=%s err=%v", cfgPath, err)
	})
	if err != nil {
		debugLog.Printf("Config watcher disabled: %v", err)
	}

	// Frame loop: advance animations on the predicted presentation
	// cadence and push frames while anything moves.
	done := make(chan struct{})
	go func() {
		defer recoverAndLog("frame-loop")
		start := time.Now()
		timer := time.NewTimer(time.Millisecond)
		defer timer.Stop()
		for {
			select {
			case <-done:
				return
			case <-timer.C:
				now := time.Since(start)
				t := perf.Start("frame")
				if engine.Frame() {
					server.BroadcastState()
				}
				if elapsed := t.Stop(); elapsed > 8*time.Millisecond {
					perf.Log("slow frame: %v", elapsed)
				}
				engine.FramePresented(now)
				timer.Reset(engine.NextFrameIn(now))
			}
		}
	}()

	<-sigCh
	debugLog.Printf("Shutting down daemon")
	logEvent("DAEMON_STOP instance=%s pid=%d", instance, os.Getpid())
	close(done)
	if watcher != nil {
		watcher.Close()
	}
	server.Stop()
}
