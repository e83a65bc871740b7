package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"makefoods"
	"makefoods/app"
)

const help = `Commands:
  <text>                 chat with the assistant
  /detail <dish>         show a stored recipe
  /explain <dish>        ask the assistant how to cook a dish
  /suggest <a>, <b>, ... list recipes that use the ingredients
  /fridge                list the fridge
  /add <name> [qty]      put an ingredient in the fridge
  /quit                  exit`

func main() {
	dump := flag.Bool("dump", false, "dump the loaded configuration and recipe count, then exit")
	verbose := flag.Bool("v", false, "log at debug level to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	makefoods.SetupLogging(os.Stderr, level)

	ctx := context.Background()

	modelConfig, appConfig, err := makefoods.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	a, err := app.Build(ctx, modelConfig, appConfig, app.Options{})
	if err != nil {
		log.Fatalf("Failed to build app: %s", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("SETUP: Failed to close app", "error", err)
		}
	}()

	if *dump {
		count, err := a.Recipes.Count(ctx)
		if err != nil {
			log.Fatalf("Failed to count recipes: %s", err)
		}
		if modelConfig.OpenAIAPIKey != "" {
			modelConfig.OpenAIAPIKey = "redacted"
		}
		makefoods.Dump(modelConfig, appConfig, map[string]int64{"recipes": count})
		return
	}

	repl := newREPL(a, os.Stdout)
	stop := repl.printTimeline()
	defer stop()

	fmt.Fprintln(os.Stdout, help)
	repl.run(ctx, os.Stdin)
	a.Orchestrator.Wait()
}

type repl struct {
	app *app.App
	out io.Writer
	mu  sync.Mutex
}

func newREPL(a *app.App, out io.Writer) *repl {
	return &repl{app: a, out: out}
}

// printTimeline prints every message appended to the timeline until the
// returned func is called.
func (r *repl) printTimeline() func() {
	msgs, cancel := r.app.Orchestrator.Timeline().Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		printed := 0
		for snapshot := range msgs {
			for _, m := range snapshot[printed:] {
				r.printMessage(m)
			}
			printed = len(snapshot)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (r *repl) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		r.handle(ctx, line)
	}
}

func (r *repl) handle(ctx context.Context, line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	orch := r.app.Orchestrator

	switch cmd {
	case "/detail":
		orch.RequestRecipeDetail(ctx, arg)
	case "/explain":
		orch.ExplainRecipe(ctx, arg)
	case "/suggest":
		orch.SuggestForIngredients(ctx, strings.Split(arg, ","))
	case "/fridge":
		r.printFridge()
	case "/add":
		r.add(ctx, arg)
	case "/help":
		r.println(help)
	default:
		if strings.HasPrefix(cmd, "/") {
			r.println("unknown command " + cmd)
			return
		}
		orch.SendUserMessage(ctx, line)
	}
}

func (r *repl) add(ctx context.Context, arg string) {
	name, qty := arg, 1
	if i := strings.LastIndex(arg, " "); i > 0 {
		if n, err := strconv.Atoi(arg[i+1:]); err == nil {
			name, qty = strings.TrimSpace(arg[:i]), n
		}
	}
	if name == "" || qty < 1 {
		r.println("usage: /add <name> [qty]")
		return
	}

	now := time.Now()
	err := <-r.app.Fridge.Insert(makefoods.Ingredient{
		Name:         name,
		Quantity:     qty,
		RegisteredAt: now,
		ExpiresAt:    now.AddDate(0, 0, r.app.AppConfig.DefaultShelfLifeDays),
	})
	if err != nil {
		r.println("failed to add: " + err.Error())
		return
	}
	r.println(fmt.Sprintf("added %s (%d)", name, qty))
}

func (r *repl) printFridge() {
	ings := r.app.Fridge.Current()
	if len(ings) == 0 {
		r.println("the fridge is empty")
		return
	}

	var b strings.Builder
	for _, ing := range ings {
		fmt.Fprintf(&b, "#%d %s (%d), expires %s\n", ing.ID, ing.Name, ing.Quantity, ing.ExpiresAt.Format(time.DateOnly))
	}
	r.println(strings.TrimRight(b.String(), "\n"))
}

func (r *repl) printMessage(m makefoods.Message) {
	if m.Sender == makefoods.SenderUser {
		return
	}

	var b strings.Builder
	b.WriteString("assistant> ")
	b.WriteString(m.Text)
	switch m.Kind {
	case makefoods.KindRecipeOptions:
		for _, name := range m.RecipeOptions {
			fmt.Fprintf(&b, "\n  - %s", name)
		}
	case makefoods.KindRecipeDetail:
		for _, rec := range m.Recipes {
			fmt.Fprintf(&b, "\n  %s [%s, %s]\n  Ingredients: %s\n  Steps: %s",
				rec.Name, rec.CookingTime, rec.Difficulty, rec.Ingredients, rec.CookingSteps)
		}
	}
	r.println(b.String())
}

func (r *repl) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}
