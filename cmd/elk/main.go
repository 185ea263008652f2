// Command elk loads a static ELF64 executable into its own address space and
// jumps to it.
//
// Build it as a position-independent executable (-buildmode=pie): a regular
// Go binary is linked at 0x400000, the address most static executables want.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

const envPrefix = "ELK_"

var cfg struct {
	verbose bool
	run     runParams
	info    struct {
		file string
	}
}

var logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stdout))

// errReported means the details were already written to stderr.
var errReported = errors.New("reported")

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "A tiny loader for static ELF64 executables.").UsageWriter(os.Stdout)
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("false").Envar(envPrefix + "VERBOSE").BoolVar(&cfg.verbose)

	runCmd := app.Command("run", "Load an executable and jump to its entry point.")
	runCmd.Arg("file", "Executable to load.").Required().ExistingFileVar(&cfg.run.file)
	runCmd.Flag("pause", "Wait for Enter before jumping.").Default("false").BoolVar(&cfg.run.pause)
	runCmd.Flag("alignment", "Alignment policy: strict pre-validates segments, host lets mmap reject them.").Envar(envPrefix+"ALIGNMENT").EnumVar(&cfg.run.alignment, "strict", "host")
	runCmd.Flag("verify", "Check each protection change against /proc/self/maps.").Envar(envPrefix + "VERIFY").BoolVar(&cfg.run.verify)
	runCmd.Flag("config", "YAML loader configuration file.").Envar(envPrefix + "CONFIG").ExistingFileVar(&cfg.run.config)

	infoCmd := app.Command("info", "Describe an executable without loading it.")
	infoCmd.Arg("file", "Executable to describe.").Required().ExistingFileVar(&cfg.info.file)

	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	if !cfg.verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	switch parsedCmd {
	case runCmd.FullCommand():
		cfg.run.stdin = os.Stdin
		cfg.run.stderr = os.Stderr
		os.Exit(checkError(os.Stderr, run(&cfg.run)))
	case infoCmd.FullCommand():
		os.Exit(checkError(os.Stderr, info(os.Stdout, os.Stderr, cfg.info.file)))
	default:
		level.Error(logger).Log("msg", "unknown command", "cmd", parsedCmd)
		os.Exit(1)
	}
}

func checkError(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errReported):
	default:
		fmt.Fprintf(w, "%s%v\n", color.RedString("Error: "), err)
	}
	return 1
}
