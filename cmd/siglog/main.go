// Command siglog inspects log files written by a siglog.Writer.
//
// Usage:
//
//	siglog signals FILE
//	siglog dump [-signals a,b] [-limit n] FILE
//	siglog cat -signals a,b [-quiet] GLOB
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/nesv/siglog"
	"github.com/nesv/siglog/block"
	"github.com/nesv/siglog/container"
	"github.com/pkg/errors"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  siglog signals FILE
  siglog dump [-signals a,b] [-limit n] FILE
  siglog cat -signals a,b [-quiet] GLOB`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "signals":
		err = signals(os.Stdout, args)
	case "dump":
		err = dump(os.Stdout, args)
	case "cat":
		err = cat(os.Stdout, args)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "siglog:", err)
		os.Exit(1)
	}
}

// signals lists the signals of a log file, with their schema, compression
// and number of events.
func signals(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("signals", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}

	f, err := container.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()
	if !f.HasGroup(siglog.Namespace) {
		return errors.Wrap(siglog.ErrNotALog, fs.Arg(0))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# %s (created %s)\n", f.ID(), f.Created().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(tw, "SIGNAL\tTYPE\tEVENTS\tCOMPRESSION")
	for _, t := range f.Tables(siglog.Namespace) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.Name(), t.Schema(), t.NumRows(), t.Filters())
	}
	return tw.Flush()
}

// dump prints the events of one log file, in order of time.
func dump(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	names := fs.String("signals", "", "comma-separated `list` of signals to print")
	limit := fs.Int("limit", 0, "stop after `n` events (0 means no limit)")
	debug := fs.Bool("debug", false, "print debugging messages")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}

	options := []siglog.Option{
		siglog.Quiet(true),
		siglog.WithLogger(siglog.NewLogger(os.Stderr, *debug)),
	}
	if s := block.SplitSignals(*names); s != nil {
		options = append(options, siglog.Signals(s...))
	}
	r, err := siglog.Open(fs.Arg(0), options...)
	if err != nil {
		return err
	}
	defer r.Close()
	return printEvents(w, r, *limit)
}

// cat prints the events of every log file matching a glob pattern, one
// file after the other.
func cat(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	names := fs.String("signals", "", "comma-separated `list` of signals to print (required)")
	quiet := fs.Bool("quiet", false, "do not report progress")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}

	m, err := siglog.OpenGlob(fs.Arg(0), block.SplitSignals(*names),
		siglog.Quiet(*quiet),
		siglog.WithLogger(siglog.NewLogger(os.Stderr, false)),
	)
	if err != nil {
		return err
	}
	defer m.Close()
	return printEvents(w, m, 0)
}

func printEvents(w io.Writer, src siglog.Source, limit int) error {
	for n := 0; limit == 0 || n < limit; n++ {
		ev, err := src.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%.6f\t%s\t%v\n", ev.Time, ev.Signal, ev.Value); err != nil {
			return err
		}
	}
	return nil
}
