package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

var (
	Version = "dev"
)

func main() {
	// panic 恢复，TUI 崩溃时仍打印堆栈
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "程序发生panic: %v\n", r)
			fmt.Fprintln(os.Stderr, "堆栈跟踪:")
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
