// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"contractir/internal/ast"
	"contractir/internal/compiler"
	"contractir/internal/errors"
	"contractir/internal/interp"
	"contractir/internal/ir"
)

func main() {
	verbose := flag.Int("v", 0, "log verbosity (0 quiet, 1 info, 2 debug)")
	workers := flag.Int("workers", 0, "functions compiled at once (default from unit, env or CPU count)")
	call := flag.String("call", "", "evaluate this function after building")
	args := flag.String("args", "", "hex-encoded call data for -call, without selector")
	quiet := flag.Bool("q", false, "do not print the IR")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: contractc [flags] <unit.yaml>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	commonlog.Configure(*verbose, nil)

	startTime := time.Now()
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}
	errorReporter := errors.NewErrorReporter(path, string(source))

	unit, err := ast.Load(path, source)
	if err != nil {
		fmt.Print(errorReporter.FormatError(err))
		color.Red("Loading failed after %s", formatDuration(time.Since(startTime)))
		os.Exit(1)
	}

	opts, err := compiler.DefaultOptions().WithUnit(unit.Options).WithEnv()
	if err != nil {
		fmt.Print(errorReporter.FormatError(err))
		os.Exit(1)
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if *verbose >= 2 && opts.Verify {
		for _, pass := range ir.NewVerifyPipeline().Passes() {
			fmt.Printf("; pass %s: %s\n", pass.Name(), pass.Description())
		}
	}

	res := compiler.Compile(context.Background(), unit, opts)
	for _, fr := range res.Functions {
		if fr.Err != nil {
			fmt.Print(errorReporter.FormatError(fr.Err))
			continue
		}
		if !*quiet {
			fmt.Println(ir.Print(fr.Function))
		}
	}

	hasErrors := len(res.Failed()) > 0
	if *call != "" {
		if err := evaluate(res, *call, *args, opts); err != nil {
			fmt.Print(errorReporter.FormatError(err))
			hasErrors = true
		}
	}

	formattedDuration := formatDuration(time.Since(startTime))
	if hasErrors {
		color.Red("Compilation failed after %s (%d of %d functions)", formattedDuration,
			len(res.Failed()), len(res.Functions))
		os.Exit(1)
	}
	color.Green("Successfully processed %s in %s", path, formattedDuration)
}

func evaluate(res *compiler.Result, name, calldata string, opts compiler.Options) error {
	fn, err := res.Lookup(name)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.TrimPrefix(calldata, "0x"))
	if err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Function(name).
			Path("args").
			Detail("call data is not hex").
			Cause(err).
			Build()
	}

	out, err := interp.Call(fn, data, opts.InterpOptions()...)
	if err != nil {
		return err
	}
	if out.Reverted {
		color.Yellow("%s reverted: %s (%d steps)", name, out.Reason, out.Steps)
		return nil
	}
	fmt.Printf("%s returned 0x%x (%d steps)\n", name, out.ReturnData, out.Steps)
	return nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
