// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package common holds the on-disk state shared by gyges' commands.
package common

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"laptudirm.com/x/gyges/pkg/gyges"
	"laptudirm.com/x/gyges/pkg/ugi"
)

//go:embed config.yaml
var BaseConfigFile []byte

type Config struct {
	Engine   ugi.EngineConfig `yaml:"engine"`
	Settings SideSettings     `yaml:"settings"`

	AutoDelay time.Duration `yaml:"auto-delay"`
}

type SideSettings struct {
	P1 ugi.SearchSettings `yaml:"p1"`
	P2 ugi.SearchSettings `yaml:"p2"`
}

// For returns the settings used when searching for the given side.
func (settings *SideSettings) For(side gyges.Side) *ugi.SearchSettings {
	if side == gyges.P2 {
		return &settings.P2
	}

	return &settings.P1
}

// DefaultConfig returns the configuration in the embedded config file.
func DefaultConfig() Config {
	var config Config
	if err := yaml.Unmarshal(BaseConfigFile, &config); err != nil {
		panic(fmt.Sprintf("common: bad embedded config: %v", err))
	}

	return config
}

// LoadConfig reads the config file at the given path on top of the default
// config. An empty path means ConfigFile, which is created with the
// default contents if it doesn't exist.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = ConfigFile
		if err := TryMkdir(filepath.Dir(path)); err != nil {
			return config, err
		}

		if err := TryCreate(path, BaseConfigFile); err != nil {
			return config, err
		}
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(file))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}

	logrus.WithField("path", path).Debug("Loaded configuration")
	return config, nil
}

// Dump writes the config to the given path.
func (config *Config) Dump(path string) error {
	file, err := config.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, file, 0644)
}

// Marshal encodes the config in the config file's format.
func (config *Config) Marshal() ([]byte, error) {
	var buffer bytes.Buffer

	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// Apply sets up the session with the config's search settings and delay.
// The settings are clamped to the limits the engine accepts.
func (config *Config) Apply(session *ugi.Session) {
	session.SetSettings(gyges.P1, config.Settings.P1.Clamp())
	session.SetSettings(gyges.P2, config.Settings.P2.Clamp())
	session.Delay = config.AutoDelay
}
