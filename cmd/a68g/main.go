// Command a68g runs an Algol 68 source file, the CLI entry point of §6
// (`prog [options | filename]`), generalising own
// cmd-level driver (interp/interp.go's Eval/EvalPath pair, wrapped by a
// small main in its own cmd tree) from Go source to Algol 68 source.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a68g/a68g/interp"
)

// silentExtensions are the input file suffixes accepted (§6 "Input
// files"), checked case-insensitively; a file with any other suffix is
// rejected, and a FILE= option does not change that.
var silentExtensions = []string{".a68", ".a68g", ".algol68"}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, file, err := interp.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a68g:", err)
		return 1
	}

	if opts.Help {
		printHelp()
		return 0
	}
	if opts.Version {
		printVersion()
		return 0
	}

	if file != "" && !hasAcceptedExtension(file) {
		fmt.Fprintf(os.Stderr, "a68g: %s: unrecognised extension (want one of %s)\n",
			file, strings.Join(silentExtensions, ", "))
		return 1
	}

	i := interp.New(opts)

	if opts.Echo != "" {
		fmt.Fprintln(i.Options.Stdout, opts.Echo)
	}

	var result interp.Value
	switch {
	case !opts.Run && file != "":
		var src []byte
		if src, err = os.ReadFile(file); err == nil {
			err = i.Check(string(src))
		}
	case opts.Execute != "":
		result, err = i.Eval(opts.Execute)
	case file != "":
		result, err = i.EvalPath(file)
	default:
		_, err = i.REPL()
	}

	if opts.Statistics {
		stats := i.GCStatsSnapshot()
		fmt.Fprintf(os.Stderr, "a68g: %d collection(s), %d handle(s) swept, %d preempted\n",
			stats.Collections, stats.Swept, stats.Preempted)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "a68g:", err)
		return 1
	}
	if opts.Verbose && result != nil {
		fmt.Fprintln(os.Stdout, result)
	}
	return 0
}

func hasAcceptedExtension(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	for _, want := range silentExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

func printHelp() {
	fmt.Println(`usage: a68g [options] [filename]

options (case-insensitive, leading '-' optional, '=' between flag and value):
  RUN | CHECK/NORUN        execute, or only run the checker suite
  VERBOSE                   print the program's final value
  STATISTICS                print collector stats on exit
  PORTCHECK / NOPORTCHECK   toggle the portability checker
  HEAP=n[kMG]                collector threshold
  STACK=n | FRAME=n          frame stack depth limit
  ECHO=text                  print text before running
  EXECUTE=unit | PRINT=unit  evaluate unit instead of reading a file
  TIMELIMIT=n                abort with a runtime error after n seconds
  VERSION                    print the interpreter's version
  HELP                       print this message

Input files use the .a68, .a68g or .algol68 extension.`)
}
