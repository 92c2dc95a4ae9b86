// Command envresctl is a small demonstration CLI over the envres
// resolver: point it at a workspace root and a file, and it prints the
// resolved variables that apply at that location.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/lixenwraith/envres"
)

func main() {
	root := flag.String("root", ".", "workspace root")
	file := flag.String("file", "", "file path to resolve variables for (defaults to root)")
	key := flag.String("key", "", "if set, resolve only this key instead of all variables")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	target := *file
	if target == "" {
		target = *root
	}

	resolver, err := envres.NewBuilder().
		WithRoot(*root).
		Build()
	if err != nil {
		slog.Error("failed to build resolver", "error", err)
		os.Exit(1)
	}
	defer resolver.Close()

	if *key != "" {
		v, err := resolver.GetForFile(*key, target)
		if err != nil {
			slog.Error("resolve failed", "key", *key, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s=%s\n", v.Key, v.Value)
		return
	}

	all, err := resolver.AllForFile(target)
	if err != nil {
		slog.Error("resolve failed", "error", err)
		os.Exit(1)
	}
	for _, v := range all {
		fmt.Printf("%s=%s\n", v.Key, v.Value)
	}

	stats := resolver.Stats()
	slog.Debug("resolver stats",
		"sources", stats.SourceCount,
		"cache_size", stats.CacheSize,
		"packages", stats.PackageCount,
	)
}
