// Command rolevars generates annotated per-host example configuration
// files from a deployment's role metadata.
//
// For every host in the inventory (plus the synthetic shared "all" host),
// rolevars resolves the roles that apply to it — directly assigned roles
// and their transitive dependencies, minus anything already covered by
// the shared baseline — and writes two files under host_vars/<host>/:
// an example config documenting the non-secret variables, and a companion
// .secrets file listing the variables that belong in a vault.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"rolevars/internal/clog"
	"rolevars/internal/generate"
	"rolevars/internal/inventory"
	"rolevars/internal/playbook"
	"rolevars/internal/role"
	"rolevars/internal/watch"
)

// playbookAutodetectNames are tried in order in the working directory
// when no playbook argument is given.
var playbookAutodetectNames = []string{"playbook.yml", "site.yml", "main.yml", "deploy.yml"}

// defaultInventoryRelPath is resolved against the project root (the
// playbook's directory) unless --inventory-file overrides it.
const defaultInventoryRelPath = "inventory/.hosts.yml.example"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the CLI flag values.
type options struct {
	inventoryFile string
	processShared bool
	watchMode     bool
	logLevel      string
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "rolevars [playbook]",
		Short: "Generate example host_vars files from role argument specs",
		Long: `Generate annotated example host_vars config files from the roles'
argument specs, defaults, and dependency metadata.

The playbook is autodetected from conventional names in the working
directory when omitted. Output goes to host_vars/<host>/.<host>.yml.example
and .<host>.secrets.yml.example next to the playbook; the leading dot keeps
the deployment tool from loading the examples as real vars.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := clog.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log := slog.New(clog.NewHandler(cmd.ErrOrStderr(), level))

			playbookPath := ""
			if len(args) > 0 {
				playbookPath = args[0]
			}
			return run(cmd.Context(), log, playbookPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inventoryFile, "inventory-file", "i", "",
		"inventory file to deduce hosts from (default <root>/"+defaultInventoryRelPath+")")
	cmd.Flags().BoolVar(&opts.processShared, "process-shared", true,
		"also generate the shared 'all' config for tasks tagged '"+playbook.SharedTag+"'")
	cmd.Flags().BoolVar(&opts.watchMode, "watch", false,
		"keep running and regenerate whenever the playbook, inventory, or roles change")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info",
		"log level: debug, info, warn, or error")
	return cmd
}

// findPlaybook tries the conventional playbook names in the working
// directory.
func findPlaybook() string {
	for _, name := range playbookAutodetectNames {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

func run(ctx context.Context, log *slog.Logger, playbookPath string, opts options) error {
	if playbookPath == "" {
		playbookPath = findPlaybook()
		if playbookPath == "" {
			return fmt.Errorf("no playbook found in the working directory (tried %v); pass one explicitly", playbookAutodetectNames)
		}
	} else if info, err := os.Stat(playbookPath); err != nil || info.IsDir() {
		return fmt.Errorf("playbook %q does not exist or is not a file", playbookPath)
	}

	abs, err := filepath.Abs(playbookPath)
	if err != nil {
		return err
	}
	root := filepath.Dir(abs)
	log.Info("generating example configs", "playbook", playbookPath, "root", root)

	inventoryFile := opts.inventoryFile
	if inventoryFile == "" {
		inventoryFile = filepath.Join(root, defaultInventoryRelPath)
	}

	// Inputs are re-read on every pass so watch mode picks up edits.
	generateAll := func() error {
		hosts, err := inventory.Parse(inventoryFile, opts.processShared, log)
		if err != nil {
			return err
		}
		tasks, err := playbook.Load(abs)
		if err != nil {
			return err
		}
		gen := &generate.Generator{
			Root:  root,
			Tasks: tasks,
			Roles: &role.Store{Root: root, Log: log},
			Log:   log,
		}
		return gen.Run(hosts)
	}

	if err := generateAll(); err != nil {
		return err
	}
	log.Info("done")

	if !opts.watchMode {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	paths := []string{abs, inventoryFile}
	if info, err := os.Stat(filepath.Join(root, "roles")); err == nil && info.IsDir() {
		paths = append(paths, filepath.Join(root, "roles"))
	}
	w := &watch.Watcher{Paths: paths, Log: log, OnChange: generateAll}
	return w.Run(ctx)
}
