package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/fileutil"
)

const exampleHeader = `# sitegen configuration
# Values may reference environment variables as ${NAME}; .env is loaded first.
`

const exampleSites = `domain,phone,address,email,title
acme.test,555-0100,1 Main St,hello@acme.test,Acme Plumbing
globex.test,555-0199,42 Elm Rd,info@globex.test,
`

// Init writes an example configuration and site list next to it.
// Existing files are kept unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Metrics.Textfile = filepath.Join(DefaultBuildRoot, ".sitegen", "sitegen.prom")

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := fileutil.WriteFileAtomic(configPath, append([]byte(exampleHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	sites := filepath.Join(filepath.Dir(configPath), example.Input)
	if _, err := os.Stat(sites); err == nil && !force {
		return nil
	}
	if err := fileutil.WriteFileAtomic(sites, []byte(exampleSites), 0o644); err != nil {
		return fmt.Errorf("failed to write site list: %w", err)
	}
	return nil
}
