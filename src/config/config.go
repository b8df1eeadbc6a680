// Package config loads pyjam's layered build configuration, following
// core.Configuration's file format and precedence in the teacher: a
// repo config, an architecture-specific override, a local override,
// and finally environment variables, each taking precedence over the
// last (spec.md §9 ambient config section).
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/please-build/gcfg"
)

// RepoConfigName is the file name for the checked-in repo config.
const RepoConfigName = ".pyjamconfig"

// LocalConfigName overrides RepoConfigName on a single machine; not
// normally checked in.
const LocalConfigName = ".pyjamconfig.local"

// OsArch is the os/arch pair used to build the architecture-specific
// config file name, e.g. "linux_amd64".
const OsArch = runtime.GOOS + "_" + runtime.GOARCH

// ArchConfigName is the architecture-specific config file, read after
// the repo config and before the local override.
var ArchConfigName = RepoConfigName + "_" + OsArch

// Configuration holds every tunable pyjam reads from .pyjamconfig. gcfg
// matches each [section] and key to the field of the same name,
// case-insensitively.
type Configuration struct {
	Build struct {
		CC        string `help:"C compiler to invoke for compile rules."`
		CXX       string `help:"C++ compiler to invoke for compile rules."`
		AS        string `help:"Assembler to invoke for assembly compile rules."`
		AR        string `help:"Archiver to invoke for archive rules."`
		Link      string `help:"Linker driver to invoke for link rules; typically the same as CC or CXX."`
		Ccache    string `help:"Optional ccache-style wrapper prepended to CC/CXX invocations. Empty disables it."`
		CFlags    string `help:"Default flags appended to every C compile."`
		CXXFlags  string `help:"Default flags appended to every C++ compile."`
		ASFlags   string `help:"Default flags appended to every assembly compile."`
		LinkFlags string `help:"Default flags appended to every link."`
	} `help:"The [build] section records the toolchain for the built-in compile, link and archive rules. The rules do not read it: their ${CC}, ${CFLAGS} and similar references expand from the process environment and the target's Context."`
	Run struct {
		// NumThreads is a convenience default for callers embedding the
		// engine directly; the pyjam CLI itself always treats -j absent
		// as single-threaded per spec.md §6, not this value.
		NumThreads int  `help:"Default worker goroutine count for embedders that construct a session directly."`
		FailFast   bool `help:"Default for -q/--quit: abort the rest of a build as soon as one action fails."`
	} `help:"The [run] section configures default scheduling behaviour."`
	Debug struct {
		Channels []string `help:"Debug channels listed as defaults. The pyjam CLI does not apply them; its enabled channels come only from -d flags."`
	} `help:"The [debug] section lists default debug output channels; the pyjam CLI does not apply them."`
}

// Default returns the built-in configuration with no files applied,
// mirroring core.DefaultConfiguration's role as the base every config
// file layers on top of.
func Default() *Configuration {
	c := &Configuration{}
	c.Build.CC = "cc"
	c.Build.CXX = "c++"
	c.Build.AS = "cc"
	c.Build.AR = "ar"
	c.Build.Link = "cc"
	c.Build.CFlags = "-Wall"
	c.Build.CXXFlags = "-Wall"
	c.Run.NumThreads = runtime.NumCPU()
	c.Run.FailFast = false
	return c
}

func readFile(c *Configuration, filename string) error {
	if err := gcfg.ReadFileInto(c, filename); err != nil && os.IsNotExist(err) {
		return nil
	} else if gcfg.FatalOnly(err) != nil {
		return err
	}
	return nil
}

// applyEnvOverrides lets a handful of well-known environment variables
// win over every file, matching the teacher's "env overrides" layer.
func applyEnvOverrides(c *Configuration) {
	if v := os.Getenv("PYJAM_CC"); v != "" {
		c.Build.CC = v
	}
	if v := os.Getenv("PYJAM_CXX"); v != "" {
		c.Build.CXX = v
	}
	if v := os.Getenv("PYJAM_CCACHE"); v != "" {
		c.Build.Ccache = v
	}
}

// Load reads the layered config rooted at repoRoot: RepoConfigName,
// then ArchConfigName, then LocalConfigName, each overriding fields set
// by the last, on top of Default(), then applies environment overrides.
func Load(repoRoot string) (*Configuration, error) {
	c := Default()
	for _, name := range []string{RepoConfigName, ArchConfigName, LocalConfigName} {
		if err := readFile(c, filepath.Join(repoRoot, name)); err != nil {
			return c, err
		}
	}
	applyEnvOverrides(c)
	return c, nil
}
