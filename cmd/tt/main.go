package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teamtask/internal/app"
	"teamtask/internal/config"
	"teamtask/internal/db"
	"teamtask/internal/domain"
	"teamtask/internal/engine"
	"teamtask/internal/engine/auth"
	"teamtask/internal/engine/recurrence"
	"teamtask/internal/migrate"
	"teamtask/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tt",
	Short: "Team task lists",
	Long: `tt manages recurring checklists for teams.
- Templates: a named checklist with a recurrence (daily, weekly, monthly, yearly or one_time).
- Task items: the ordered lines of a template.
- Assignments: one dated occurrence of a template. Recurring ones appear on their own the first time a date is read.
- Completions: each user's own tick against each task item of an occurrence.
- Day summary: everything due on a date with your ticks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TEAMTASK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("as", "", "user id to act as")
	rootCmd.PersistentFlags().String("driver", "", "database driver (sqlite, postgres); overrides teamtask.yml")
	rootCmd.PersistentFlags().String("dsn", "", "database DSN; overrides teamtask.yml")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("as", rootCmd.PersistentFlags().Lookup("as"))
	_ = viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver"))
	_ = viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(companyCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default teamtask.yml and create the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
					return err
				}
				fmt.Println("wrote", path)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				v, err := migrate.Version(a.DB)
				if err != nil {
					return err
				}
				fmt.Printf("schema version %d\n", v)
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				v, err := migrate.Version(a.DB)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"driver": a.DB.DriverName(), "version": v})
			})
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the default teamtask.yml",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.GenerateDefault())
		},
	})
	return cmd
}

func companyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "company", Short: "Manage companies"}

	var name, slug, owner string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company, optionally with an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				c, u, err := app.EnsureCompany(ctx, a.Engine, name, slug, owner)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"company": c, "owner": u})
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "company name")
	create.Flags().StringVar(&slug, "slug", "", "url-safe identifier (derived from name when empty)")
	create.Flags().StringVar(&owner, "owner-email", "", "email of the owner to create")

	list := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListCompanies(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Slug", "Name"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Slug, c.Name})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	cmd.AddCommand(create, list)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}

	var companyID, email, displayName, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a user to a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, err := a.Engine.CreateUser(ctx, companyID, email, displayName, role)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	create.Flags().StringVar(&companyID, "company", "", "company id")
	create.Flags().StringVar(&email, "email", "", "email")
	create.Flags().StringVar(&displayName, "name", "", "display name")
	create.Flags().StringVar(&role, "role", auth.RoleMember, "owner, manager or member")
	_ = create.MarkFlagRequired("company")
	_ = create.MarkFlagRequired("email")

	var listCompany string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users of a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListUsers(ctx, listCompany)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Email", "Name", "Role"})
				for _, u := range items {
					tw.AppendRow(table.Row{u.ID, u.Email, u.DisplayName, u.Role})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	list.Flags().StringVar(&listCompany, "company", "", "company id")
	_ = list.MarkFlagRequired("company")
	cmd.AddCommand(create, list)
	return cmd
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for --as (needs TEAMTASK_JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("jwt_secret")
			if secret == "" {
				return fmt.Errorf("TEAMTASK_JWT_SECRET is required")
			}
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				if ttl <= 0 {
					ttl = a.Config.Auth.TokenTTL.Duration
				}
				token, err := server.IssueToken(secret, actor, ttl, time.Now())
				if err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys"}

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for --as",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				key, plain, err := a.Engine.CreateAPIKey(ctx, actor, name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "name": key.Name, "key": plain})
				}
				fmt.Printf("API key %s created. Store it now, it is not shown again:\n%s\n", key.ID, plain)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "label")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				keys, err := a.Engine.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := newTable(table.Row{"ID", "User", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.UserID, k.Name, k.CreatedAt})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				return a.Engine.DeleteAPIKey(ctx, actor, args[0])
			})
		},
	}
	cmd.AddCommand(create, list, revoke)
	return cmd
}

type templateFlags struct {
	name       string
	typ        string
	kind       string
	dayOfWeek  int
	dayOfMonth int
	recurMonth int
	recurDay   int
}

func (f *templateFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "template name")
	cmd.Flags().StringVar(&f.typ, "type", "", "free-form category, e.g. opening")
	cmd.Flags().StringVar(&f.kind, "period", "", "daily, weekly, monthly, yearly or one_time")
	cmd.Flags().IntVar(&f.dayOfWeek, "day-of-week", 0, "weekly: 0=Sun..6=Sat")
	cmd.Flags().IntVar(&f.dayOfMonth, "day-of-month", 0, "monthly: 1..31")
	cmd.Flags().IntVar(&f.recurMonth, "month", 0, "yearly: 1..12")
	cmd.Flags().IntVar(&f.recurDay, "day", 0, "yearly: 1..31")
}

// input only sets what was passed on the command line.
func (f *templateFlags) input(cmd *cobra.Command) engine.TemplateInput {
	var in engine.TemplateInput
	str := func(flag string, v *string) *string {
		if cmd.Flags().Changed(flag) {
			return v
		}
		return nil
	}
	num := func(flag string, v *int) *int {
		if cmd.Flags().Changed(flag) {
			return v
		}
		return nil
	}
	in.Name = str("name", &f.name)
	in.Type = str("type", &f.typ)
	in.PeriodType = str("period", &f.kind)
	in.DayOfWeek = num("day-of-week", &f.dayOfWeek)
	in.DayOfMonth = num("day-of-month", &f.dayOfMonth)
	in.RecurMonth = num("month", &f.recurMonth)
	in.RecurDay = num("day", &f.recurDay)
	return in
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage checklist templates",
	}

	var cf templateFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				t, err := a.Engine.CreateTemplate(ctx, actor, cf.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cf.bind(create)

	list := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				items, err := a.Engine.ListTemplates(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Name", "Type", "Recurrence"})
				for _, t := range items {
					tw.AppendRow(table.Row{t.ID, t.Name, t.Type, describeRecurrence(t)})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template with its task items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				t, err := a.Engine.GetTemplate(ctx, actor, args[0])
				if err != nil {
					return err
				}
				items, err := a.Engine.ListTaskItems(ctx, actor, t.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"template": t, "tasks": items})
				}
				fmt.Printf("%s (%s) %s\n", t.Name, t.Type, describeRecurrence(t))
				tw := newTable(table.Row{"#", "ID", "Title"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.SortOrder, it.ID, it.Title})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}

	var uf templateFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a template; changing --period clears the old recurrence fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				t, err := a.Engine.UpdateTemplate(ctx, actor, args[0], uf.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	uf.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template with its task items and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				return a.Engine.DeleteTemplate(ctx, actor, args[0])
			})
		},
	}

	cmd.AddCommand(create, list, show, update, del, taskItemCmd())
	return cmd
}

func taskItemCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage the task items of a template"}

	var sortOrder int
	add := &cobra.Command{
		Use:   "add <template-id> <title>",
		Short: "Append a task item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				in := engine.TaskItemInput{Title: &args[1]}
				if cmd.Flags().Changed("sort") {
					in.SortOrder = &sortOrder
				}
				it, err := a.Engine.CreateTaskItem(ctx, actor, args[0], in)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	add.Flags().IntVar(&sortOrder, "sort", 0, "position (defaults to last)")

	var title string
	var newOrder int
	update := &cobra.Command{
		Use:   "update <template-id> <task-id>",
		Short: "Rename or reorder a task item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				var in engine.TaskItemInput
				if cmd.Flags().Changed("title") {
					in.Title = &title
				}
				if cmd.Flags().Changed("sort") {
					in.SortOrder = &newOrder
				}
				it, err := a.Engine.UpdateTaskItem(ctx, actor, args[0], args[1], in)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	update.Flags().StringVar(&title, "title", "", "new title")
	update.Flags().IntVar(&newOrder, "sort", 0, "new position")

	remove := &cobra.Command{
		Use:   "remove <template-id> <task-id>",
		Short: "Remove a task item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				return a.Engine.DeleteTaskItem(ctx, actor, args[0], args[1])
			})
		},
	}
	cmd.AddCommand(add, update, remove)
	return cmd
}

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "assign", Short: "Manage dated assignments"}

	var templateID, date, assignee string
	create := &cobra.Command{
		Use:   "create",
		Short: "Put a template on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				res, err := a.Engine.CreateAssignment(ctx, actor, engine.AssignmentInput{
					TemplateID:   templateID,
					AssignedDate: dateOrToday(date),
					AssigneeID:   optionalString(assignee),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	create.Flags().StringVar(&templateID, "template", "", "template id")
	create.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (defaults to today)")
	create.Flags().StringVar(&assignee, "assignee", "", "user id; empty means shared")
	_ = create.MarkFlagRequired("template")

	var listDate string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the assignments of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				items, err := a.Engine.ListAssignments(ctx, actor, dateOrToday(listDate))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Template", "Period", "Assignee", "Scheduled"})
				for _, v := range items {
					tw.AppendRow(table.Row{v.ID, v.TemplateName, v.PeriodType, assigneeLabel(v.AssigneeName), v.Scheduled})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	list.Flags().StringVar(&listDate, "date", "", "YYYY-MM-DD (defaults to today)")

	del := &cobra.Command{
		Use:   "delete <assignment-id>",
		Short: "Remove one occurrence and its completions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				return a.Engine.DeleteAssignment(ctx, actor, args[0])
			})
		},
	}
	cmd.AddCommand(create, list, del)
	return cmd
}

func summaryCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show everything due on a date with your completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				s, err := a.Engine.DaySummary(ctx, actor, dateOrToday(date))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				printSummary(s)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (defaults to today)")
	return cmd
}

func completeCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "complete <assignment-id> <task-id>",
		Short: "Tick (or with --undo clear) a task item for yourself",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				c, err := a.Engine.SetCompletion(ctx, actor, args[0], args[1], !undo)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "clear the completion")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Audit log",
	}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events of your company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, a *app.App, actor auth.Actor) error {
				events, err := a.Engine.LatestEvents(ctx, actor, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := newTable(table.Row{"TS", "Type", "Entity", "Actor"})
				for _, evt := range events {
					tw.AppendRow(table.Row{evt.TS, evt.Type, evt.EntityKind + ":" + evt.EntityID, evt.ActorID})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	log.AddCommand(tail)
	return log
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if cmd.Flags().Changed("addr") {
					a.Config.Server.Addr = addr
				}
				if cmd.Flags().Changed("base-path") {
					a.Config.Server.BasePath = basePath
				}
				authCfg := server.AuthConfig{
					JWTSecret:     viper.GetString("jwt_secret"),
					TokenTTL:      a.Config.Auth.TokenTTL.Duration,
					AllowDevLogin: a.Config.Server.AllowDevLogin,
				}
				if authCfg.JWTSecret == "" {
					return fmt.Errorf("TEAMTASK_JWT_SECRET is required for bearer auth")
				}
				handler, err := server.New(server.Config{
					Engine:   a.Engine,
					BasePath: a.Config.Server.BasePath,
					Auth:     authCfg,
					Logger:   a.Log,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: a.Config.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				a.Log.Info("serving", "addr", "http://"+a.Config.Server.Addr+a.Config.Server.BasePath, "docs", a.Config.Server.BasePath+"/docs")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides server.base_path)")
	return cmd
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("dsn"); v != "" {
		cfg.Database.DSN = v
	}
	return cfg, cfg.Validate()
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Open(viper.GetString("workspace"), cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func withActor(ctx context.Context, fn func(context.Context, *app.App, auth.Actor) error) error {
	userID := strings.TrimSpace(viper.GetString("as"))
	if userID == "" {
		return fmt.Errorf("--as (or TEAMTASK_AS) required")
	}
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		actor, err := a.Engine.ActorFor(ctx, userID)
		if err != nil {
			return err
		}
		return fn(ctx, a, actor)
	})
}

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}

func printSummary(s domain.DaySummary) {
	fmt.Printf("Due on %s\n", s.Date)
	if len(s.Assignments) == 0 {
		fmt.Println("  nothing")
		return
	}
	tw := newTable(table.Row{"Template", "Assignee", "Task", "Done", "Assignment", "Task ID"})
	for _, a := range s.Assignments {
		for _, t := range a.Tasks {
			done := ""
			if t.MyCompletedAt != nil {
				done = "x"
			}
			tw.AppendRow(table.Row{a.TemplateName, assigneeLabel(a.AssigneeName), t.Title, done, a.ID, t.TaskTemplateID})
		}
		if len(a.Tasks) == 0 {
			tw.AppendRow(table.Row{a.TemplateName, assigneeLabel(a.AssigneeName), "", "", a.ID, ""})
		}
	}
	fmt.Println(tw.Render())
}

func describeRecurrence(t domain.Template) string {
	switch recurrence.Kind(t.PeriodType) {
	case recurrence.Weekly:
		if t.DayOfWeek != nil {
			return fmt.Sprintf("weekly on %s", time.Weekday(*t.DayOfWeek))
		}
	case recurrence.Monthly:
		if t.DayOfMonth != nil {
			return fmt.Sprintf("monthly on day %d", *t.DayOfMonth)
		}
	case recurrence.Yearly:
		if t.RecurMonth != nil && t.RecurDay != nil {
			return fmt.Sprintf("yearly on %s %d", time.Month(*t.RecurMonth), *t.RecurDay)
		}
	}
	return t.PeriodType
}

func assigneeLabel(name *string) string {
	if name == nil || *name == "" {
		return "shared"
	}
	return *name
}

func dateOrToday(s string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return recurrence.FromTime(time.Now()).String()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
