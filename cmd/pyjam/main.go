// Command pyjam is the build-orchestrator CLI: it parses flags,
// locates the project root, loads the layered config, drives a build
// session through its phases, and maps the outcome to an exit code
// (spec.md §6). It follows please.go's top-level initBuild/execute
// split: parse and validate flags first, then do the actual work.
package main

import (
	"fmt"
	"os"

	"github.com/thought-machine/go-flags"

	"github.com/pyjam-build/pyjam/src/cli"
	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/config"
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/module"
	"github.com/pyjam-build/pyjam/src/process"
	"github.com/pyjam-build/pyjam/src/session"
)

// Version is the pyjam release version reported by --version.
const Version = "0.1.0"

var log = logging.Log

// options is the pyjam CLI's flag struct, matching spec.md §6's table
// exactly. It is constructed fresh per run rather than held in a
// package-level var, consistent with the BuildSession redesign's move
// away from process-wide mutable state.
type options struct {
	All     bool          `short:"a" long:"all" description:"Force rebuild regardless of mtime."`
	Jobs    int           `short:"j" long:"jobs" description:"Worker pool size; absent means single-threaded."`
	Quit    bool          `short:"q" long:"quit" description:"Fail-fast on first action failure."`
	Debug   []cli.Channel `short:"d" long:"debug" description:"Enable one debug channel (may repeat)."`
	Quiet   bool          `short:"Q" long:"quiet" description:"Silence the default channel."`
	Version bool          `long:"version" description:"Print version and exit."`

	Args struct {
		Targets []string `positional-arg-name:"targets" description:"Targets to build; defaults to 'all'."`
	} `positional-args:"true"`
}

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var opts options
	parser := flags.NewNamedParser("pyjam", flags.HelpFlag|flags.PassDoubleDash)
	parser.AddGroup("pyjam options", "", &opts)
	if _, err := parser.ParseArgs(args[1:]); err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.Version {
		fmt.Printf("pyjam version %s\n", Version)
		return 0
	}

	channels := cli.NewChannels(opts.Debug)
	level := logging.WARNING
	switch {
	case channels.Enabled(cli.ChannelDebug), channels.Enabled(cli.ChannelTimes):
		level = logging.DEBUG
	case channels.Enabled(cli.ChannelVerbose):
		level = logging.INFO
	}
	logging.InitFromVerbosity(level)

	cwd, err := os.Getwd()
	if err != nil {
		log.Errorf("%s", err)
		return 1
	}
	root, err := config.FindRoot(cwd)
	if err != nil {
		log.Errorf("%s", err)
		return 1
	}
	if err := os.Chdir(root); err != nil {
		log.Errorf("%s", err)
		return 1
	}

	cfg, err := config.Load(root)
	if err != nil {
		log.Errorf("configuration error: %s", err)
		return 1
	}

	jobs := 1
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}

	g := graph.New()
	mods := module.NewRegistry()
	pool := process.New(jobs)
	if channels.Enabled(cli.ChannelCommands) {
		pool.EnableTrace()
	}
	sess := session.New(g, mods, pool, cfg)
	sess.RegisterBuiltins()

	if opts.All {
		for _, t := range g.AllTargets() {
			t.Always = true
		}
	}

	res, err := sess.Run(session.Options{
		TargetNames: opts.Args.Targets,
		Jobs:        jobs,
		FailFast:    opts.Quit || cfg.Run.FailFast,
	})
	if err != nil {
		switch err.(type) {
		case *graph.ConfigError, *graph.CycleError:
			log.Errorf("configuration error: %s", err)
		default:
			log.Errorf("%s", err)
		}
		return 1
	}

	if !opts.Quiet && sess.Tracker != nil {
		log.Notice(sess.Tracker.Summary())
	}

	if len(res.Failed) > 0 {
		log.Errorf("build failed: %v", res.Failed)
		return 1
	}
	return 0
}
