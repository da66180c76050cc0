package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/host/memhost"
	"github.com/delaneyj/fiberparty/internal/config"
	"github.com/delaneyj/fiberparty/internal/logging"
	"github.com/delaneyj/fiberparty/reconciler"
	"github.com/delaneyj/fiberparty/scheduler"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	configKey     = "config"
	profileKey    = "cpuprofile"
	iterationsKey = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure mount and update latency of nested component trees",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML config file",
				Value: "fiberparty.yaml",
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
				Value: "default.pgo",
			},
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Updates per tree, overrides the config file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String(configKey))
	if err != nil {
		return err
	}
	if n := cmd.Uint(iterationsKey); n > 0 {
		cfg.Benchmark.Iterations = int(n)
	}

	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkTrees(cfg, false)
	benchmarkTrees(cfg, true)
	return nil
}

func nest(rc *reconciler.RenderContext, props fiber.Props) any {
	depth := props["depth"].(int)
	tick := props["tick"].(int)
	if depth == 0 {
		reconciler.UseEffect(rc, func() func() { return nil }, []any{tick})
		return fiber.Element{Type: "span", Props: fiber.Props{fiber.ChildrenProp: tick}}
	}
	return fiber.Element{Type: nest, Props: fiber.Props{"depth": depth - 1, "tick": tick}}
}

func benchmarkTrees(cfg config.Config, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("fiberparty")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	logger := logging.New(logging.ParseLevel(cfg.Reconciler.LogLevel))
	iters := cfg.Benchmark.Iterations

	for _, w := range cfg.Benchmark.Widths {
		for _, d := range cfg.Benchmark.Depths {
			host := memhost.New()
			loop := scheduler.NewLoop(scheduler.WithTimeSlice(cfg.Scheduler.TimeSlice))
			r := reconciler.New(host, loop,
				reconciler.WithLogger(logger),
				reconciler.WithDevelopment(cfg.Reconciler.Development),
				reconciler.WithOnError(func(_ *fiber.FiberRoot, err error) {
					log.Panic(err)
				}),
			)
			root := r.CreateRoot(host.NewContainer())

			var set reconciler.Dispatch[int]
			app := func(rc *reconciler.RenderContext, _ fiber.Props) any {
				tick, dispatch := reconciler.UseState(rc, 0)
				set = dispatch
				columns := make([]any, w)
				for i := range columns {
					columns[i] = fiber.Element{
						Type:  nest,
						Key:   fmt.Sprint(i),
						Props: fiber.Props{"depth": d, "tick": tick},
					}
				}
				return fiber.Element{Type: "div", Props: fiber.Props{fiber.ChildrenProp: columns}}
			}

			start := time.Now()
			if _, err := r.UpdateRoot(root, fiber.Element{Type: app}); err != nil {
				log.Panic(err)
			}
			loop.Flush()
			mount := time.Since(start)

			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			for i := 0; i < iters; i++ {
				start := time.Now()
				set.Update(func(n int) int { return n + 1 })
				loop.Flush()
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{fmt.Sprintf("mount: %d * %d", w, d), mount, mount, mount, mount, mount},
				{
					fmt.Sprintf("update: %d * %d", w, d),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
