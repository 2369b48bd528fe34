// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yairb30/smartfix.samana.front2/internal/config"
	"github.com/yairb30/smartfix.samana.front2/internal/ui/styles"
)

// HandleConfig handles "smartfix config [show|path|init|validate|get|set]".
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)

	case "path":
		return handleConfigPath(args)

	case "init":
		return handleConfigInit(args, NewArgParser(args.Raw).BoolFlag("force"))

	case "validate", "check":
		return handleConfigValidate(args)

	case "get":
		return handleConfigGet(args, args.ConfigKey)

	case "set":
		return handleConfigSet(args, args.ConfigKey, args.ConfigVal)

	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

// configTarget is the file that init and set write.
func configTarget(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	if p := config.ActivePath(); p != "" {
		return p, nil
	}
	return config.ConfigPathTOML()
}

func handleConfigShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	source := args.ConfigPath
	if source == "" {
		source = config.ActivePath()
	}
	if source == "" {
		source = "(defaults)"
	}

	fmt.Fprintln(stdout, TitleStyle.Render("SmartFix Configuration"))
	fmt.Fprintln(stdout, RenderField("Source:", source))
	fmt.Fprintln(stdout, RenderSeparator(ruleWidth()))
	return cfg.Encode(stdout)
}

func handleConfigPath(args Args) error {
	target, err := configTarget(args)
	if err != nil {
		return err
	}
	if fileExists(target) {
		fmt.Fprintln(stdout, target)
	} else {
		fmt.Fprintf(stdout, "%s %s\n", target, DimStyle.Render("(not created)"))
	}
	return nil
}

func handleConfigInit(args Args, force bool) error {
	target := args.ConfigPath
	if target == "" {
		var err error
		if target, err = config.ConfigPathTOML(); err != nil {
			return err
		}
	}
	if fileExists(target) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	}

	if err := save(config.Default(), target); err != nil {
		return err
	}
	fmt.Fprintln(stdout, styles.RenderSuccess("Wrote default configuration to "+target))
	return nil
}

func handleConfigValidate(args Args) error {
	if _, err := loadConfig(args); err != nil {
		var verrs config.ValidateErrors
		if errors.As(err, &verrs) {
			fmt.Fprintln(stdout, "Configuration has errors:")
			for _, e := range verrs {
				fmt.Fprintf(stdout, "  - %s\n", e.Error())
			}
		}
		return err
	}
	fmt.Fprintln(stdout, styles.RenderSuccess("Configuration OK"))
	return nil
}

func handleConfigGet(args Args, key string) error {
	if key == "" {
		fmt.Fprintln(stdout, "Available keys:")
		for _, k := range config.GetAllKeys() {
			fmt.Fprintf(stdout, "  %s\n", k)
		}
		return nil
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, v)
	return nil
}

// handleConfigSet edits the file itself: environment overrides and flags
// are not written back.
func handleConfigSet(args Args, key, value string) error {
	if key == "" || value == "" {
		return errors.New("usage: smartfix config set KEY VALUE")
	}

	target, err := configTarget(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if fileExists(target) {
		load := config.LoadTOML
		if isJSON(target) {
			load = config.LoadJSON
		}
		if err := load(cfg, target); err != nil {
			return fmt.Errorf("read %s: %w", target, err)
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	check := cfg.Clone()
	check.SetDefaults()
	if err := check.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := save(cfg, target); err != nil {
		return err
	}
	fmt.Fprintln(stdout, styles.RenderSuccess(fmt.Sprintf("Set %s = %s in %s", key, value, target)))
	return nil
}

func save(cfg *config.Config, path string) error {
	if isJSON(path) {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func isJSON(path string) bool {
	return strings.HasSuffix(path, ".json")
}
