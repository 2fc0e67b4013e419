// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/logger"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// configCmd is the parent command for all configuration-related subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage deploy-manager configuration",
	Long: `Provides subcommands to manage different aspects of the deploy-manager configuration.
This includes SSH host configurations, local root path settings, the Python
interpreter, and the Django settings module.`,
}

// Local root configuration commands
var configSetLocalRootCmd = &cobra.Command{
	Use:   "set-local-root <path>",
	Short: "Set the custom root directory for local projects",
	Long: `Sets the root directory where deploy-manager will look for local Django projects.
Use an absolute path or a path starting with '~/' (e.g., '~/my-django-projects').
If set, this overrides the default search paths (~/django, ~/django-projects).
To revert to default behavior, set the path to an empty string: dm config set-local-root ""`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		localRootPath := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		if localRootPath != "" && !strings.HasPrefix(localRootPath, "/") && !strings.HasPrefix(localRootPath, "~/") {
			logger.Error("Error: Path must be absolute or start with '~/'")
			os.Exit(1)
		}

		cfg.LocalRoot = localRootPath

		err = config.SaveConfig(cfg)
		if err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		if localRootPath == "" {
			successColor.Println("Local project root reset to default search paths (~/django, ~/django-projects).")
		} else {
			successColor.Printf("Local project root set to: %s\n", localRootPath)
		}
	},
}

var configGetLocalRootCmd = &cobra.Command{
	Use:   "get-local-root",
	Short: "Show the currently configured local project root directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		if cfg.LocalRoot != "" {
			fmt.Printf("Configured local root: %s\n", identifierColor.Sprint(cfg.LocalRoot))
			resolvedPath, resolveErr := config.ResolvePath(cfg.LocalRoot)
			if resolveErr == nil {
				fmt.Printf("Resolved path:         %s\n", resolvedPath)
			} else {
				fmt.Printf("Warning: Could not resolve configured path: %v\n", resolveErr)
			}
		} else {
			fmt.Println("Local root not explicitly configured.")
			fmt.Printf("Default search paths: %s, %s\n", identifierColor.Sprint("~/django"), identifierColor.Sprint("~/django-projects"))
		}

		activePath, activeErr := discovery.GetProjectRootDirectory()
		if activeErr == nil {
			// Determine if the active path came from config or default
			resolvedConfigPath, _ := config.ResolvePath(cfg.LocalRoot) // Resolve even if empty
			homeDir, _ := os.UserHomeDir()
			defaultDjango := filepath.Join(homeDir, "django")
			defaultDjangoProjects := filepath.Join(homeDir, "django-projects")

			source := ""
			if cfg.LocalRoot != "" && activePath == resolvedConfigPath {
				source = "(from config)"
			} else if activePath == defaultDjango || activePath == defaultDjangoProjects {
				source = "(default)"
			} else {
				source = "(unknown source)"
			}
			successColor.Printf("Effective path being used: %s %s\n", activePath, source)

		} else if strings.Contains(activeErr.Error(), "could not find") {
			if cfg.LocalRoot != "" {
				fmt.Printf("Warning: Configured path '%s' not found, and no default path exists.\n", cfg.LocalRoot)
			} else {
				fmt.Println("Warning: Neither default path exists.")
			}
		} else {
			logger.Errorf("Error determining effective path: %v", activeErr)
		}
	},
}

// Python interpreter configuration commands
var configSetPythonCmd = &cobra.Command{
	Use:   "set-python <interpreter>",
	Short: "Set the Python interpreter used to run manage.py",
	Long: `Sets the Python interpreter used for all project commands.
The value can be a bare command name resolved via PATH or an absolute path.
To revert to the default (` + config.DefaultPython + `), set it to an empty string: dm config set-python ""

Examples:
  dm config set-python python3.12
  dm config set-python /usr/local/bin/python3`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		interpreter := strings.TrimSpace(args[0])

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		cfg.Python = interpreter

		err = config.SaveConfig(cfg)
		if err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		if interpreter == "" {
			successColor.Printf("Python interpreter reset to default (%s).\n", config.DefaultPython)
		} else {
			successColor.Printf("Python interpreter set to: %s\n", interpreter)
		}
	},
}

var configGetPythonCmd = &cobra.Command{
	Use:   "get-python",
	Short: "Show the currently configured Python interpreter",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		fmt.Printf("Current Python interpreter: %s", identifierColor.Sprint(cfg.PythonInterpreter()))
		if cfg.Python == "" {
			fmt.Print(" (default)")
		}
		fmt.Println()
	},
}

// Settings module configuration commands
var configSetSettingsModuleCmd = &cobra.Command{
	Use:   "set-settings-module <dotted.path>",
	Short: "Set the DJANGO_SETTINGS_MODULE forwarded to manage.py commands",
	Long: `Sets the Django settings module exported as DJANGO_SETTINGS_MODULE for all
project commands, local and remote. Leave empty to let each project use its
manage.py default: dm config set-settings-module ""

Example:
  dm config set-settings-module backend.settings.production`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		module := strings.TrimSpace(args[0])

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		cfg.SettingsModule = module

		err = config.SaveConfig(cfg)
		if err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		if module == "" {
			successColor.Println("Settings module cleared; projects will use their manage.py default.")
		} else {
			successColor.Printf("Settings module set to: %s\n", module)
		}
	},
}

var configGetSettingsModuleCmd = &cobra.Command{
	Use:   "get-settings-module",
	Short: "Show the currently configured Django settings module",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		if cfg.SettingsModule == "" {
			fmt.Printf("Settings module not configured %s\n", dimColor.Sprint("(projects use their manage.py default)"))
			return
		}
		fmt.Printf("Current settings module: %s\n", identifierColor.Sprint(cfg.SettingsModule))
	},
}

func init() {
	configCmd.AddCommand(configSetLocalRootCmd)
	configCmd.AddCommand(configGetLocalRootCmd)

	configCmd.AddCommand(configSetPythonCmd)
	configCmd.AddCommand(configGetPythonCmd)

	configCmd.AddCommand(configSetSettingsModuleCmd)
	configCmd.AddCommand(configGetSettingsModuleCmd)

	rootCmd.AddCommand(configCmd)
}
