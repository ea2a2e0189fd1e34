package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"vehicle-pricing/internal/common/config"
	pvp "vehicle-pricing/internal/workers/pricing/predict-vehicle-price"
	"vehicle-pricing/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	syncPath := syncCmd.String("path", defaultRegistryPath, "Path to registry file")
	configPath := syncCmd.String("config", "", "Service config file used for worker timeouts (defaults apply when empty)")

	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		_ = syncCmd.Parse(os.Args[2:])
		if err := syncPricingActivity(*syncPath, *configPath); err != nil {
			fmt.Printf("Error syncing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Synced activity %s into %s\n", pvp.TaskType, *syncPath)

	case "update":
		_ = updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*updatePath, *idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		if err == nil {
			err = reg.Validate()
		}
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))

	default:
		help()
	}
}

// syncPricingActivity regenerates the pricing worker entry from code so the
// registry cannot drift from the schema the service enforces.
func syncPricingActivity(path, configPath string) error {
	wcfg := pvp.DefaultConfig()
	if configPath != "" {
		appCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		wcfg = pvp.CreateConfigFromAppConfig(appCfg)
	}

	activity, err := pvp.Activity(wcfg)
	if err != nil {
		return err
	}

	reg, err := registry.LoadOrNew(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if existing, err := reg.Find(activity.ID); err == nil {
		activity.Workflows = existing.Workflows
	}
	reg.Upsert(activity)
	if err := reg.Validate(); err != nil {
		return err
	}
	return reg.Save(path, time.Now())
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	a, err := reg.Find(id)
	if err != nil {
		return err
	}

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	case "workflow":
		a.Workflows = append(a.Workflows, value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return reg.Save(path, time.Now())
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  sync     Regenerate the predict-vehicle-price activity from the worker code
  update   Update an existing activity's field
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater sync -config configs/config.yaml
  registry-updater update -id predict-vehicle-price -field workflow -value vehicle-listing
  registry-updater validate -path configs/activity-registry.json

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
