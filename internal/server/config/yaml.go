package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadYAML накладывает значения из YAML файла поверх текущих.
// Отсутствующие в файле ключи не меняют значения по умолчанию.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}
