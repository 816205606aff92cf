package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/stemrender/cmd/stemrender/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts and their render configuration.

A context is a named directory holding render.yaml. Keys are dotted paths
into that file, for example samples.dir or output.bucket.

Examples:
  stemrender config list-contexts
  stemrender config add-context studio
  stemrender config use-context studio
  stemrender config current-context
  stemrender config set studio output.kind s3
  stemrender config set studio output.bucket renders
  stemrender config get studio output.bucket
  stemrender config edit studio`,
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names, err := cfg.ListContexts()
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("No contexts configured.")
			fmt.Println("Create one with: stemrender config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tSERVICES")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			services, _ := config.ListServices(cfg.ContextDir(name))
			fmt.Fprintf(w, "%s\t%s\t%s\n", current, name, strings.Join(services, ", "))
		}
		return w.Flush()
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]
		if err := cfg.AddContext(name); err != nil {
			return err
		}
		fmt.Printf("Context %q created.\n", name)
		fmt.Printf("Configure it with: stemrender config set %s <key> <value>\n", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context and its configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Context %q deleted.\n", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Switched to context %q.\n", args[0])
		return nil
	},
}

var configCurrentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Display the current context name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set.")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

// contextDirArg validates a context argument and returns its directory.
func contextDirArg(name string) (string, error) {
	cfg, err := GetConfig()
	if err != nil {
		return "", err
	}
	if err := config.ValidateContextName(name); err != nil {
		return "", err
	}
	dir := cfg.ContextDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("context %q not found", name)
	}
	return dir, nil
}

// loadRenderDoc loads render.yaml as a generic document. A missing or
// empty file yields an empty document.
func loadRenderDoc(dir string) (map[string]any, error) {
	path := filepath.Join(dir, config.RenderServiceName+".yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	doc, err := config.LoadService[map[string]any](dir, config.RenderServiceName)
	if err != nil {
		return nil, fmt.Errorf("cannot read existing render config: %w", err)
	}
	if *doc == nil {
		return map[string]any{}, nil
	}
	return *doc, nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <context> <key> <value>",
	Short: "Set a render config value",
	Long: `Set a dotted key in a context's render.yaml. Values are parsed as YAML
scalars, so numbers and booleans keep their type.

Examples:
  stemrender config set dev sample_rate 48000
  stemrender config set dev samples.dir /srv/samples
  stemrender config set dev output.path_style true`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctxName, key, value := args[0], args[1], args[2]
		dir, err := contextDirArg(ctxName)
		if err != nil {
			return err
		}
		doc, err := loadRenderDoc(dir)
		if err != nil {
			return err
		}
		if err := config.SetValue(doc, key, value); err != nil {
			return err
		}
		if err := config.SaveService(dir, config.RenderServiceName, &doc); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s (context: %s)\n", key, value, ctxName)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <context> <key>",
	Short: "Get a render config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctxName, key := args[0], args[1]
		dir, err := contextDirArg(ctxName)
		if err != nil {
			return err
		}
		doc, err := loadRenderDoc(dir)
		if err != nil {
			return err
		}
		val, ok := config.GetValue(doc, key)
		if !ok {
			return fmt.Errorf("key %q not found in render config", key)
		}
		if m, isMap := val.(map[string]any); isMap {
			return printResult(m)
		}
		fmt.Println(val)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit <context>",
	Short: "Open a context's render.yaml in the default editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if _, err := contextDirArg(args[0]); err != nil {
			return err
		}

		path := cfg.ServicePath(args[0], config.RenderServiceName)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("# render configuration\n"), 0600); err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		c := exec.Command(editor, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configCurrentContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}
